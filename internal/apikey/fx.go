package apikey

import (
	"github.com/crescendohq/crescendo/internal/apikey/repository"
	"github.com/crescendohq/crescendo/internal/apikey/service"
	"go.uber.org/fx"
)

// Module wires API key storage and verification for the admin surface.
var Module = fx.Module("apikey",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
