package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/garment-dashboard/internal/platform/cache"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`

	BackendURL     string        `envconfig:"BACKEND_URL" validate:"required,url"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s" validate:"gt=0"`

	QueryRetries      int           `envconfig:"QUERY_RETRIES" default:"1" validate:"min=0,max=5"`
	QueryRetryBackoff time.Duration `envconfig:"QUERY_RETRY_BACKOFF" default:"250ms"`
	QueryLoadWait     time.Duration `envconfig:"QUERY_LOAD_WAIT" default:"3s"`
	WorkspaceIdleTTL  time.Duration `envconfig:"WORKSPACE_IDLE_TTL" default:"30m" validate:"gt=0"`
	ExportRateLimit   int           `envconfig:"EXPORT_RATE_LIMIT" default:"10" validate:"min=1"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"min=0,max=15"`
	RedisCacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"0"`
	WarmupCron    string        `envconfig:"WARMUP_CRON" default:"*/15 * * * *"`
}

// ErrRedisRequired is returned by components that cannot run without Redis.
var ErrRedisRequired = errors.New("REDIS_ADDR must be provided")

// LoadConfig reads configuration from environment variables. Overrides run
// after the environment is read and before validation.
func LoadConfig(overrides ...func(*Config)) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("config: %s fails %q", first.Field(), first.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// HasRedis reports whether the shared Redis tier is configured.
func (c *Config) HasRedis() bool {
	return c != nil && c.RedisAddr != ""
}

// RequireRedis returns ErrRedisRequired when REDIS_ADDR is empty.
func (c *Config) RequireRedis() error {
	if !c.HasRedis() {
		return ErrRedisRequired
	}
	return nil
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() cache.Config {
	return cache.Config{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}
