package query

import (
	"context"
	"sync"
)

// Binding ties a page to the key it currently displays.
type Binding struct {
	cache   *Cache
	metrics *Metrics

	mu      sync.Mutex
	key     Key
	bound   bool
	enabled bool
	stale   int
}

// NewBinding binds a page to cache.
func NewBinding(cache *Cache, metrics *Metrics) *Binding {
	b := &Binding{cache: cache, metrics: metrics}
	cache.OnSettle(b.settled)
	return b
}

func (b *Binding) settled(key Key, _ Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound && !b.key.Equal(key) {
		b.stale++
		b.metrics.recordStale()
	}
}

// Apply makes key the displayed key. A disabled binding issues no request.
func (b *Binding) Apply(key Key, enabled bool) Result {
	b.mu.Lock()
	b.key, b.bound, b.enabled = key, true, enabled
	b.mu.Unlock()
	if enabled {
		b.cache.Load(key)
	}
	return b.State()
}

// Key returns the displayed key.
func (b *Binding) Key() (Key, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key, b.bound
}

// State returns the result for the displayed key only.
func (b *Binding) State() Result {
	b.mu.Lock()
	key, bound, enabled := b.key, b.bound, b.enabled
	b.mu.Unlock()
	if !bound {
		return Result{Status: StatusIdle}
	}
	if !enabled {
		return Result{Key: key, Status: StatusIdle, Disabled: true}
	}
	return b.cache.Result(key)
}

// Wait blocks until the displayed key settles or ctx ends. If the displayed
// key changes while waiting, the state of the new key is returned.
func (b *Binding) Wait(ctx context.Context) Result {
	for {
		state := b.State()
		if !state.IsLoading() {
			return state
		}
		b.cache.Wait(ctx, state.Key)
		if ctx.Err() != nil {
			return b.State()
		}
	}
}

// Refetch drops the displayed key's cached result and fetches it again.
func (b *Binding) Refetch(ctx context.Context) Result {
	b.mu.Lock()
	key, bound, enabled := b.key, b.bound, b.enabled
	b.mu.Unlock()
	if !bound || !enabled {
		return b.State()
	}
	b.cache.Invalidate(ctx, key)
	b.cache.Load(key)
	return b.State()
}

// Reset drops every cached result; the next Apply fetches again.
func (b *Binding) Reset() { b.cache.Reset() }

// Stale returns how many responses settled for keys the page no longer displays.
func (b *Binding) Stale() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stale
}

// Close releases the page cache.
func (b *Binding) Close() { b.cache.Close() }
