package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://127.0.0.1:8000/api/v1")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 1, cfg.QueryRetries)
	assert.Equal(t, 3*time.Second, cfg.QueryLoadWait)
	assert.Equal(t, 30*time.Minute, cfg.WorkspaceIdleTTL)
	assert.Equal(t, time.Duration(0), cfg.RedisCacheTTL)
	assert.False(t, cfg.HasRedis())
	assert.False(t, cfg.IsProduction())
	assert.ErrorIs(t, cfg.RequireRedis(), ErrRedisRequired)

	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireRedis())
}

func TestLoadConfigRequiresBackend(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "BackendURL")

	cfg, err := LoadConfig(func(c *Config) { c.BackendURL = "http://reports.local/api/v1" })
	require.NoError(t, err)
	assert.Equal(t, "http://reports.local/api/v1", cfg.BackendURL)
}

func TestLoadConfigValidates(t *testing.T) {
	t.Setenv("BACKEND_URL", "not a url")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "BackendURL")

	t.Setenv("BACKEND_URL", "http://127.0.0.1:8000")
	t.Setenv("QUERY_RETRIES", "9")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "QueryRetries")

	t.Setenv("QUERY_RETRIES", "1")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "LogFormat")
}

func TestNewPipelineWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &Config{
		BackendURL:     "http://127.0.0.1:8000/api/v1",
		BackendTimeout: time.Second,
		QueryRetries:   1,
		RedisAddr:      mr.Addr(),
	}
	p, err := NewPipeline(context.Background(), cfg, NewLogger(cfg), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.NotNil(t, p.Store)
	assert.NotNil(t, p.Metrics)
	assert.NotNil(t, p.Shared)
	assert.Len(t, p.Registry.Pages(), 18)
}

func TestNewPipelineWithoutRedis(t *testing.T) {
	cfg := &Config{BackendURL: "http://127.0.0.1:8000", BackendTimeout: time.Second}
	p, err := NewPipeline(context.Background(), cfg, NewLogger(cfg), nil)
	require.NoError(t, err)
	assert.Nil(t, p.Store)
	assert.Nil(t, p.Metrics)
	assert.NoError(t, p.Close())
}
