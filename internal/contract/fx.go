package contract

import (
	"github.com/crescendohq/crescendo/internal/contract/render"
	"github.com/crescendohq/crescendo/internal/contract/repository"
	"github.com/crescendohq/crescendo/internal/contract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
