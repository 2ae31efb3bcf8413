package notification

import (
	"github.com/crescendohq/crescendo/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(func(cfg config.Config, log *zap.Logger) Dispatcher {
		if url := cfg.Notification.WebhookURL; url != "" {
			return NewWebhookDispatcher(url, log)
		}
		return NewLogDispatcher(log)
	}),
)
