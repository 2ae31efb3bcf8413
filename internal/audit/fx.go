package audit

import (
	"github.com/crescendohq/crescendo/internal/audit/repository"
	"github.com/crescendohq/crescendo/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewRecorder),
)
