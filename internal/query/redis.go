package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey  = "reports:version"
	bumpChannel = "reports.bump"
	keyPrefix   = "reports"
)

// RedisStore keeps report payloads in Redis under a global version. Bumping
// the version orphans every stored payload at once.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	onBump []func(int64)
}

// NewRedisStore builds a store. A zero ttl stores payloads without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// Version reads the current version from Redis, initialising it when missing.
// Every call goes to Redis so bumps from other processes apply immediately.
func (s *RedisStore) Version(ctx context.Context) (int64, error) {
	ver, err := s.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := s.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("query: init version: %w", err)
		}
		ver, err = s.client.Get(ctx, versionKey).Int64()
	}
	if err != nil {
		return 0, fmt.Errorf("query: read version: %w", err)
	}
	if ver <= 0 {
		ver = 1
		if err := s.client.Set(ctx, versionKey, ver, 0).Err(); err != nil {
			return 0, fmt.Errorf("query: reset version: %w", err)
		}
	}
	return ver, nil
}

// BuildKey composes the Redis key for a structural query key.
func (s *RedisStore) BuildKey(ctx context.Context, key string) (string, error) {
	ver, err := s.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", keyPrefix, ver, key), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	redisKey, err := s.BuildKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	payload, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(payload), true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, raw json.RawMessage) error {
	redisKey, err := s.BuildKey(ctx, key)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey, []byte(raw), s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	redisKey, err := s.BuildKey(ctx, key)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, redisKey).Err()
}

// Bump invalidates every stored payload by incrementing the version and
// announcing it to other processes.
func (s *RedisStore) Bump(ctx context.Context) (int64, error) {
	ver, err := s.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("query: bump version: %w", err)
	}
	if err := s.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, fmt.Errorf("query: publish bump: %w", err)
	}
	return ver, nil
}

// ListenForInvalidation passes published version bumps to OnBump callbacks
// until ctx ends. The returned channel is closed once the subscription is live.
func (s *RedisStore) ListenForInvalidation(ctx context.Context) (<-chan struct{}, error) {
	pubsub := s.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("query: subscribe %s: %w", bumpChannel, err)
	}
	ready := make(chan struct{})
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		var announced int64
		close(ready)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					s.logger.Warn("malformed cache bump", slog.String("payload", msg.Payload))
					continue
				}
				if ver > announced {
					announced = ver
					s.logger.Info("report cache version bumped", slog.Int64("version", ver))
					s.notify(ver)
				}
			}
		}
	}()
	return ready, nil
}

// OnBump registers fn to run when a newer version is published by any
// process. Register before ListenForInvalidation.
func (s *RedisStore) OnBump(fn func(version int64)) {
	s.mu.Lock()
	s.onBump = append(s.onBump, fn)
	s.mu.Unlock()
}

func (s *RedisStore) notify(version int64) {
	s.mu.Lock()
	fns := append([]func(int64){}, s.onBump...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(version)
	}
}
