package observability

import (
	"github.com/crescendohq/crescendo/internal/config"
	"github.com/crescendohq/crescendo/internal/observability/logger"
	"github.com/crescendohq/crescendo/internal/observability/metrics"
	"github.com/crescendohq/crescendo/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Telemetry.TracingEnabled,
			ServiceName:      cfg.Telemetry.ServiceName,
			ServiceVersion:   cfg.Telemetry.ServiceVersion,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
			ExporterProtocol: cfg.Telemetry.ExporterProtocol,
			SamplingRatio:    cfg.Telemetry.SamplingRatio,
		}
	}),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(func() metric.MeterProvider {
		return otel.GetMeterProvider()
	}),
	fx.Provide(metrics.NewHTTPMetrics),
	// Warm the signing counters so their service labels come from config
	// rather than defaults on first use.
	fx.Invoke(func(cfg metrics.Config) { metrics.SigningWithConfig(cfg) }),
	fx.Invoke(tracing.NewProvider),
)
