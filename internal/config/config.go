package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries all runtime configuration, sourced from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	// NodeID distinguishes instances for snowflake ID generation.
	NodeID int64

	Database     DatabaseConfig
	Token        TokenConfig
	Signing      SigningConfig
	Bootstrap    BootstrapConfig
	Notification NotificationConfig
	Telemetry    TelemetryConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type TokenConfig struct {
	// TTL applies to both reviewer and signing tokens.
	TTL time.Duration
}

type SigningConfig struct {
	// MinSignatureLength is the minimum accepted length of the encoded
	// signature image payload. Shorter payloads are rejected as malformed.
	MinSignatureLength int
	// PublicRateLimit caps requests per client IP per window on the
	// unauthenticated token endpoints.
	PublicRateLimit  int
	PublicRateWindow time.Duration
}

type BootstrapConfig struct {
	// EnsureAdminKey seeds a bootstrap admin API key on startup when no
	// active key exists. Disabled in production.
	EnsureAdminKey bool
	AdminKeySecret string
}

type NotificationConfig struct {
	// WebhookURL, when set, routes invites to an external notification
	// endpoint instead of the application log.
	WebhookURL string
}

type TelemetryConfig struct {
	ServiceName      string
	ServiceVersion   string
	TracingEnabled   bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Load reads configuration from the environment with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("CRESCENDO_ENV", "development"),
		HTTPAddr:    getEnv("CRESCENDO_HTTP_ADDR", ":8080"),
		NodeID:      int64(getInt("CRESCENDO_NODE_ID", 1)),
		Database: DatabaseConfig{
			Driver: getEnv("CRESCENDO_DB_DRIVER", "sqlite"),
			DSN:    getEnv("CRESCENDO_DB_DSN", "file:crescendo.db?_fk=1"),
		},
		Token: TokenConfig{
			TTL: getDuration("CRESCENDO_TOKEN_TTL", 30*24*time.Hour),
		},
		Signing: SigningConfig{
			MinSignatureLength: getInt("CRESCENDO_MIN_SIGNATURE_LENGTH", 100),
			PublicRateLimit:    getInt("CRESCENDO_PUBLIC_RATE_LIMIT", 60),
			PublicRateWindow:   getDuration("CRESCENDO_PUBLIC_RATE_WINDOW", time.Minute),
		},
		Bootstrap: BootstrapConfig{
			EnsureAdminKey: getBool("CRESCENDO_BOOTSTRAP_ADMIN_KEY", true),
			AdminKeySecret: getEnv("CRESCENDO_BOOTSTRAP_ADMIN_KEY_SECRET", ""),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("CRESCENDO_NOTIFY_WEBHOOK_URL", ""),
		},
		Telemetry: TelemetryConfig{
			ServiceName:      getEnv("CRESCENDO_SERVICE_NAME", "crescendo"),
			ServiceVersion:   getEnv("CRESCENDO_SERVICE_VERSION", "dev"),
			TracingEnabled:   getBool("CRESCENDO_TRACING_ENABLED", false),
			ExporterEndpoint: getEnv("CRESCENDO_OTLP_ENDPOINT", ""),
			ExporterProtocol: getEnv("CRESCENDO_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    getFloat("CRESCENDO_TRACE_SAMPLING_RATIO", 1.0),
		},
	}

	if cfg.IsProduction() {
		cfg.Bootstrap.EnsureAdminKey = false
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
