package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/garment-dashboard/internal/backend"
	"github.com/odyssey-erp/garment-dashboard/internal/platform/cache"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
)

// Pipeline is the report fetch stack shared by the server, the worker and the
// CLI.
type Pipeline struct {
	Client   *backend.Client
	Redis    *redis.Client
	Store    *query.RedisStore
	Shared   *query.Shared
	Metrics  *query.Metrics
	Registry *reports.Registry
}

// NewPipeline connects the backend client and, when configured, the Redis
// tier. A nil registerer skips query metrics.
func NewPipeline(ctx context.Context, cfg *Config, logger *slog.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{Client: client, Registry: reports.DefaultRegistry()}

	if reg != nil {
		p.Metrics, err = query.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("app: query metrics: %w", err)
		}
	}

	sharedCfg := query.SharedConfig{
		Retries:      cfg.QueryRetries,
		RetryBackoff: cfg.QueryRetryBackoff,
		Retryable:    backend.Retryable,
		Logger:       logger,
		Metrics:      p.Metrics,
	}
	if cfg.HasRedis() {
		p.Redis, err = cache.New(ctx, cfg.Redis())
		if err != nil {
			return nil, err
		}
		p.Store = query.NewRedisStore(p.Redis, cfg.RedisCacheTTL, logger)
		sharedCfg.Store = p.Store
	}
	p.Shared = query.NewShared(query.FromGetter(client), sharedCfg)
	return p, nil
}

// Close releases the Redis connection.
func (p *Pipeline) Close() error {
	if p == nil || p.Redis == nil {
		return nil
	}
	return p.Redis.Close()
}
