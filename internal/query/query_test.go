package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
)

// gateFetcher blocks each fetch until its key is released.
type gateFetcher struct {
	mu    sync.Mutex
	gates map[string]chan fetchOutcome
	calls atomic.Int32
}

type fetchOutcome struct {
	raw json.RawMessage
	err error
}

func newGateFetcher() *gateFetcher {
	return &gateFetcher{gates: make(map[string]chan fetchOutcome)}
}

func (g *gateFetcher) gate(key Key) chan fetchOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key.String()]
	if !ok {
		ch = make(chan fetchOutcome, 1)
		g.gates[key.String()] = ch
	}
	return ch
}

func (g *gateFetcher) Fetch(ctx context.Context, key Key) (json.RawMessage, error) {
	g.calls.Add(1)
	select {
	case out := <-g.gate(key):
		return out.raw, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gateFetcher) release(key Key, raw string, err error) {
	g.gate(key) <- fetchOutcome{raw: json.RawMessage(raw), err: err}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestKeyStructuralEquality(t *testing.T) {
	a := NewKey("/reports/sales/panel-wise", filter.Set{"start_date": "2024-01-01", "end_date": "2024-01-31"})
	b := NewKey("/reports/sales/panel-wise", filter.Set{"end_date": "2024-01-31", "start_date": "2024-01-01", "panel_id": ""})
	c := NewKey("/reports/sales/bundle-sku", filter.Set{"start_date": "2024-01-01", "end_date": "2024-01-31"})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "/reports/sales/panel-wise?end_date=2024-01-31&start_date=2024-01-01", a.String())
	assert.Equal(t, "/reports/fabric/cost-sheet", NewKey("/reports/fabric/cost-sheet", nil).String())
}

func TestCacheLoadAndReuse(t *testing.T) {
	fetcher := newGateFetcher()
	cache := NewCache(fetcher)
	defer cache.Close()
	key := NewKey("/reports/fabric/cost-sheet", nil)

	cache.Load(key)
	cache.Load(key)
	assert.True(t, cache.Result(key).IsLoading())

	fetcher.release(key, `{"fabrics":[]}`, nil)
	res := cache.Wait(waitCtx(t), key)
	require.True(t, res.IsSuccess())
	assert.JSONEq(t, `{"fabrics":[]}`, string(res.Data))

	cache.Load(key)
	assert.True(t, cache.Result(key).IsSuccess())
	assert.EqualValues(t, 1, fetcher.calls.Load())
}

func TestCacheErrorIsRetriedOnNextLoad(t *testing.T) {
	fetcher := newGateFetcher()
	cache := NewCache(fetcher)
	defer cache.Close()
	key := NewKey("/reports/sales/bundle-sku", nil)

	cache.Load(key)
	fetcher.release(key, "", errors.New("down"))
	res := cache.Wait(waitCtx(t), key)
	require.True(t, res.IsError())
	assert.Nil(t, res.Data)

	cache.Load(key)
	fetcher.release(key, `[]`, nil)
	assert.True(t, cache.Wait(waitCtx(t), key).IsSuccess())
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestCacheInvalidateDropsInFlightResponse(t *testing.T) {
	fetcher := newGateFetcher()
	cache := NewCache(fetcher)
	defer cache.Close()
	key := NewKey("/reports/sales/bundle-sku", nil)

	cache.Load(key)
	cache.Invalidate(context.Background(), key)
	fetcher.release(key, `[{"bundle_sku":"old"}]`, nil)

	assert.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusIdle, cache.Result(key).Status)
}

func TestBindingNeverShowsSupersededKey(t *testing.T) {
	fetcher := newGateFetcher()
	cache := NewCache(fetcher)
	binding := NewBinding(cache, nil)
	defer binding.Close()

	first := NewKey("/reports/sales/discount-general", filter.Set{"start_date": "2024-01-01"})
	second := NewKey("/reports/sales/discount-general", filter.Set{"start_date": "2024-02-01"})

	assert.True(t, binding.Apply(first, true).IsLoading())
	assert.True(t, binding.Apply(second, true).IsLoading())

	fetcher.release(first, `[{"sku":"A"}]`, nil)
	assert.Eventually(t, func() bool { return binding.Stale() == 1 }, time.Second, 5*time.Millisecond)

	state := binding.State()
	assert.True(t, state.IsLoading())
	assert.True(t, state.Key.Equal(second))

	fetcher.release(second, `[{"sku":"B"}]`, nil)
	state = binding.Wait(waitCtx(t))
	require.True(t, state.IsSuccess())
	assert.JSONEq(t, `[{"sku":"B"}]`, string(state.Data))
}

func TestBindingDisabledIssuesNoRequest(t *testing.T) {
	fetcher := newGateFetcher()
	binding := NewBinding(NewCache(fetcher), nil)
	defer binding.Close()

	state := binding.Apply(NewKey("/reports/sales/daily/{report_date}", filter.Set{}), false)
	assert.True(t, state.Disabled)
	assert.False(t, state.IsLoading())
	assert.EqualValues(t, 0, fetcher.calls.Load())

	state = binding.Refetch(context.Background())
	assert.True(t, state.Disabled)
	assert.EqualValues(t, 0, fetcher.calls.Load())
}

func TestBindingRefetch(t *testing.T) {
	fetcher := newGateFetcher()
	binding := NewBinding(NewCache(fetcher), nil)
	defer binding.Close()
	key := NewKey("/reports/fabric/stock-sheet/total", nil)

	binding.Apply(key, true)
	fetcher.release(key, `{"fabrics":[]}`, nil)
	require.True(t, binding.Wait(waitCtx(t)).IsSuccess())

	assert.True(t, binding.Refetch(context.Background()).IsLoading())
	fetcher.release(key, `{"fabrics":[{"fabric_type":"JERSEY"}]}`, nil)
	state := binding.Wait(waitCtx(t))
	require.True(t, state.IsSuccess())
	assert.Contains(t, string(state.Data), "JERSEY")
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestBindingWaitHonoursContext(t *testing.T) {
	fetcher := newGateFetcher()
	binding := NewBinding(NewCache(fetcher), nil)
	defer binding.Close()

	binding.Apply(NewKey("/reports/fabric/cost-sheet", nil), true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.True(t, binding.Wait(ctx).IsLoading())
}

func TestSharedDeduplicatesConcurrentFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	shared := NewShared(FetcherFunc(func(ctx context.Context, key Key) (json.RawMessage, error) {
		calls.Add(1)
		<-release
		return json.RawMessage(`[]`), nil
	}), SharedConfig{})
	key := NewKey("/reports/sales/inactive-panels", filter.Set{"days_threshold": "30"})

	var wg sync.WaitGroup
	results := make([]string, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := shared.Fetch(context.Background(), key)
			if err == nil {
				results[i] = string(raw)
			}
		}(i)
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []string{"[]", "[]", "[]"}, results)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSharedRetriesRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	transient := errors.New("transient")
	shared := NewShared(FetcherFunc(func(ctx context.Context, key Key) (json.RawMessage, error) {
		if calls.Add(1) == 1 {
			return nil, transient
		}
		return json.RawMessage(`{"ok":true}`), nil
	}), SharedConfig{
		Retries:   1,
		Retryable: func(err error) bool { return errors.Is(err, transient) },
	})

	raw, err := shared.Fetch(context.Background(), NewKey("/reports/summary/all", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.EqualValues(t, 2, calls.Load())
}

func TestSharedDoesNotRetryPermanentErrors(t *testing.T) {
	var calls atomic.Int32
	permanent := errors.New("not found")
	shared := NewShared(FetcherFunc(func(ctx context.Context, key Key) (json.RawMessage, error) {
		calls.Add(1)
		return nil, permanent
	}), SharedConfig{Retries: 3, Retryable: func(error) bool { return false }})

	_, err := shared.Fetch(context.Background(), NewKey("/reports/summary/all", nil))
	assert.ErrorIs(t, err, permanent)
	assert.EqualValues(t, 1, calls.Load())
}

func newRedisStore(t *testing.T) (*RedisStore, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 0, nil), client
}

func TestRedisStoreVersioning(t *testing.T) {
	store, client := newRedisStore(t)
	ctx := context.Background()

	ok, err := func() (bool, error) { _, ok, err := store.Get(ctx, "k"); return ok, err }()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", json.RawMessage(`[1]`)))
	raw, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[1]`, string(raw))
	assert.Equal(t, int64(1), client.Exists(ctx, "reports:1:k").Val())

	ver, err := store.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", json.RawMessage(`[2]`)))
	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisStoreFollowsRemoteBumps(t *testing.T) {
	local, client := newRedisStore(t)
	remote := NewRedisStore(client, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ver, err := local.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	var notified atomic.Int64
	local.OnBump(func(version int64) { notified.Store(version) })
	ready, err := local.ListenForInvalidation(ctx)
	require.NoError(t, err)
	<-ready

	_, err = remote.Bump(ctx)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		v, _ := local.Version(ctx)
		return v == 2
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return notified.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRedisStoreSeesBumpWithoutSubscription(t *testing.T) {
	worker, client := newRedisStore(t)
	cli := NewRedisStore(client, 0, nil)
	ctx := context.Background()

	require.NoError(t, worker.Set(ctx, "/reports/fabric/cost-sheet", json.RawMessage(`{"old":true}`)))
	ver, err := cli.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	_, ok, err := worker.Get(ctx, "/reports/fabric/cost-sheet")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, worker.Set(ctx, "/reports/fabric/cost-sheet", json.RawMessage(`{"old":false}`)))
	raw, ok, err := cli.Get(ctx, "/reports/fabric/cost-sheet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"old":false}`, string(raw))
}

func TestCacheResetDiscardsEverything(t *testing.T) {
	fetcher := newGateFetcher()
	cache := NewCache(fetcher)
	t.Cleanup(cache.Close)
	done := NewKey("/reports/fabric/cost-sheet", nil)
	pending := NewKey("/reports/sales/bundle-sku", nil)

	cache.Load(done)
	fetcher.release(done, `[]`, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.True(t, cache.Wait(ctx, done).IsSuccess())
	cache.Load(pending)

	cache.Reset()
	assert.Equal(t, 0, cache.Len())
	fetcher.release(pending, `[1]`, nil)
	assert.Never(t, func() bool { return cache.Result(pending).IsSuccess() }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, StatusIdle, cache.Result(done).Status)
}

func TestSharedUsesStore(t *testing.T) {
	store, _ := newRedisStore(t)
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	var calls atomic.Int32
	shared := NewShared(FetcherFunc(func(ctx context.Context, key Key) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`{"fabrics":[]}`), nil
	}), SharedConfig{Store: store, Metrics: metrics})
	key := NewKey("/reports/fabric/stock-sheet/total", nil)

	for i := 0; i < 3; i++ {
		_, err := shared.Fetch(context.Background(), key)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, calls.Load())

	require.NoError(t, shared.Forget(context.Background(), key))
	_, err = shared.Fetch(context.Background(), key)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "garment_reports_cache_hits_total")
	assert.Contains(t, names, "garment_reports_fetch_duration_seconds")
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	again, err := NewMetrics(reg)
	require.NoError(t, err)
	again.recordStale()
	again.recordHit("redis", "/x")
	again.recordMiss("/x")
}
