package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics captures low-cardinality HTTP server metrics. Endpoints
// are recorded as route patterns, never raw paths, so token values in
// the public signing URLs cannot become labels.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	inFlight        metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP server instruments.
func NewHTTPMetrics(cfg Config, provider metric.MeterProvider) (*HTTPMetrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "crescendo"
	}
	meter := provider.Meter(name + "/http")

	requestDuration, err := meter.Float64Histogram("http.server.duration_ms")
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("http.server.in_flight")
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{requestDuration: requestDuration, inFlight: inFlight}, nil
}

// GinMiddleware records per-request duration and the in-flight gauge.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		route := routeAttributes(c)
		opt := metric.WithAttributes(route...)

		m.inFlight.Add(ctx, 1, opt)
		start := time.Now()
		c.Next()
		m.inFlight.Add(ctx, -1, opt)

		done := FilterAttributes(append(route,
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)...)
		m.requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(done...))
	}
}

// routeAttributes labels a request by method and route pattern. Requests
// that matched no route share one bucket, which keeps probe and
// token-guessing noise from minting label values.
func routeAttributes(c *gin.Context) []attribute.KeyValue {
	endpoint := c.FullPath()
	if strings.TrimSpace(endpoint) == "" {
		endpoint = "unmatched"
	}
	return FilterAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("endpoint", endpoint),
	)
}
