package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Status is the lifecycle state of a cache entry.
type Status int

// Entry states.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Result is what a page sees for a key.
type Result struct {
	Key       Key
	Status    Status
	Data      json.RawMessage
	Err       error
	Disabled  bool
	UpdatedAt time.Time
}

// IsLoading reports whether the key is being fetched.
func (r Result) IsLoading() bool { return r.Status == StatusLoading }

// IsError reports whether the last fetch failed.
func (r Result) IsError() bool { return r.Status == StatusError }

// IsSuccess reports whether data is available.
func (r Result) IsSuccess() bool { return r.Status == StatusSuccess }

type entry struct {
	status  Status
	data    json.RawMessage
	err     error
	updated time.Time
	done    chan struct{}
}

// Cache holds results for one mounted page. Entries live until the cache is
// closed; nothing expires on a timer.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	entries   map[string]*entry
	listeners []func(Key, Result)
	closed    bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache builds a page cache over fetcher.
func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetcher: fetcher,
		logger:  slog.Default(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSettle registers fn to run whenever a fetch completes, including fetches
// whose entry was invalidated meanwhile.
func (c *Cache) OnSettle(fn func(Key, Result)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Load starts a fetch for key unless one is running or data is cached. A
// previously failed key is fetched again.
func (c *Cache) Load(key Key) {
	id := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if e, ok := c.entries[id]; ok && (e.status == StatusLoading || e.status == StatusSuccess) {
		return
	}
	e := &entry{status: StatusLoading, done: make(chan struct{})}
	c.entries[id] = e
	go c.run(key, e)
}

func (c *Cache) run(key Key, e *entry) {
	raw, err := c.fetcher.Fetch(c.ctx, key)
	id := key.String()

	c.mu.Lock()
	current := c.entries[id] == e
	if err != nil {
		e.status, e.err = StatusError, err
	} else {
		e.status, e.data = StatusSuccess, raw
	}
	e.updated = c.now()
	result := e.result(key)
	listeners := append([]func(Key, Result){}, c.listeners...)
	closed := c.closed
	c.mu.Unlock()
	close(e.done)

	if closed {
		return
	}
	if !current {
		c.logger.Debug("report response dropped after invalidation", slog.String("key", id))
		return
	}
	if err != nil {
		c.logger.Warn("report fetch failed", slog.String("key", id), slog.Any("error", err))
	}
	for _, fn := range listeners {
		fn(key, result)
	}
}

func (e *entry) result(key Key) Result {
	return Result{Key: key, Status: e.status, Data: e.data, Err: e.err, UpdatedAt: e.updated}
}

// Result returns the current state of key without starting a fetch.
func (c *Cache) Result(key Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Result{Key: key, Status: StatusIdle}
	}
	return e.result(key)
}

// Wait blocks until the in-flight fetch for key settles or ctx ends, then
// returns the current state of key.
func (c *Cache) Wait(ctx context.Context, key Key) Result {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	c.mu.Unlock()
	if ok {
		select {
		case <-ctx.Done():
		case <-e.done:
		}
	}
	return c.Result(key)
}

// Invalidate drops the entry for key. An in-flight response for it is
// discarded when it arrives, and memoising fetchers forget the key.
func (c *Cache) Invalidate(ctx context.Context, key Key) {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
	if f, ok := c.fetcher.(Forgetter); ok {
		if err := f.Forget(ctx, key); err != nil {
			c.logger.Warn("report cache forget failed", slog.String("key", key.String()), slog.Any("error", err))
		}
	}
}

// Reset drops every entry. Responses still in flight are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels in-flight fetches and drops every entry.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.cancel()
}
