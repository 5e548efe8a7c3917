package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store persists payloads between processes.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, raw json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

// SharedConfig tunes a Shared fetcher.
type SharedConfig struct {
	Store        Store
	Retries      int
	RetryBackoff time.Duration
	Retryable    func(error) bool
	Logger       *slog.Logger
	Metrics      *Metrics
}

// Shared collapses concurrent fetches for the same key into one backend call
// and consults the optional store before fetching.
type Shared struct {
	next    Fetcher
	group   singleflight.Group
	store   Store
	retries int
	backoff time.Duration
	retry   func(error) bool
	logger  *slog.Logger
	metrics *Metrics
}

// NewShared wraps next.
func NewShared(next Fetcher, cfg SharedConfig) *Shared {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retry := cfg.Retryable
	if retry == nil {
		retry = func(error) bool { return false }
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Shared{
		next:    next,
		store:   cfg.Store,
		retries: retries,
		backoff: cfg.RetryBackoff,
		retry:   retry,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Fetch returns the payload for key. Callers that give up do not cancel the
// fetch for other callers waiting on the same key.
func (s *Shared) Fetch(ctx context.Context, key Key) (json.RawMessage, error) {
	id := key.String()
	if raw, ok := s.fromStore(ctx, id); ok {
		s.metrics.recordHit("redis", key.Endpoint)
		return raw, nil
	}
	s.metrics.recordMiss(key.Endpoint)

	detached := context.WithoutCancel(ctx)
	resultChan := s.group.DoChan(id, func() (interface{}, error) {
		return s.load(detached, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.metrics.recordHit("flight", key.Endpoint)
		}
		return res.Val.(json.RawMessage), nil
	}
}

// Forget drops any memoised payload for key so the next fetch reaches the backend.
func (s *Shared) Forget(ctx context.Context, key Key) error {
	id := key.String()
	s.group.Forget(id)
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, id)
}

func (s *Shared) fromStore(ctx context.Context, id string) (json.RawMessage, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn("report cache read failed", slog.String("key", id), slog.Any("error", err))
		return nil, false
	}
	return raw, ok
}

func (s *Shared) load(ctx context.Context, key Key) (json.RawMessage, error) {
	start := time.Now()
	var (
		raw json.RawMessage
		err error
	)
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying report fetch",
				slog.String("key", key.String()),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if s.backoff > 0 {
				timer := time.NewTimer(s.backoff * time.Duration(attempt))
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, errors.Join(err, ctx.Err())
				case <-timer.C:
				}
			}
		}
		raw, err = s.next.Fetch(ctx, key)
		if err == nil || !s.retry(err) {
			break
		}
	}
	s.metrics.observeFetch(key.Endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if storeErr := s.store.Set(ctx, key.String(), raw); storeErr != nil {
			s.logger.Warn("report cache write failed", slog.String("key", key.String()), slog.Any("error", storeErr))
		}
	}
	return raw, nil
}
