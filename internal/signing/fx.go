package signing

import (
	"github.com/crescendohq/crescendo/internal/signing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("signing.service",
	fx.Provide(service.New),
	fx.Provide(service.NewReviewFlow),
	fx.Provide(service.NewSignFlow),
)
