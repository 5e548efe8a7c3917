package workspace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
)

func newManager(t *testing.T, fetch query.FetcherFunc) (*Manager, *time.Time) {
	t.Helper()
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	m := NewManager(Config{Fetcher: fetch, IdleTTL: time.Minute})
	m.now = func() time.Time { return now }
	t.Cleanup(m.Close)
	return m, &now
}

func okFetcher(calls *atomic.Int32) query.FetcherFunc {
	return func(ctx context.Context, key query.Key) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`[]`), nil
	}
}

func TestResolveSetsCookieAndReuses(t *testing.T) {
	var calls atomic.Int32
	m, _ := newManager(t, okFetcher(&calls))

	rr := httptest.NewRecorder()
	ws := m.Resolve(rr, httptest.NewRequest(http.MethodGet, "/reports", nil))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, ws.ID(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	again := m.Resolve(rr, req)
	assert.Same(t, ws, again)
	assert.Empty(t, rr.Result().Cookies())
	assert.Equal(t, 1, m.Len())
}

func TestResolveReplacesUnknownCookie(t *testing.T) {
	var calls atomic.Int32
	m, _ := newManager(t, okFetcher(&calls))

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	rr := httptest.NewRecorder()
	ws := m.Resolve(rr, req)
	assert.NotEqual(t, "not-a-uuid", ws.ID())
	require.Len(t, rr.Result().Cookies(), 1)
}

func TestMountKeepsSamePageAndReleasesPrevious(t *testing.T) {
	var calls atomic.Int32
	m, _ := newManager(t, okFetcher(&calls))
	ws := m.Create()

	key := query.NewKey("/reports/sales/bundle-sku", filter.Set{})
	first := ws.Mount("sales/bundle-sku")
	first.Apply(key, true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, first.Wait(ctx).IsSuccess())

	assert.Same(t, first, ws.Mount("sales/bundle-sku"))
	assert.True(t, first.State().IsSuccess())

	second := ws.Mount("panels/settlement")
	assert.NotSame(t, first, second)
	assert.Equal(t, "panels/settlement", ws.Mounted())
	assert.Equal(t, query.StatusIdle, first.State().Status)

	back := ws.Mount("sales/bundle-sku")
	back.Apply(key, true)
	require.True(t, back.Wait(ctx).IsSuccess())
	assert.EqualValues(t, 2, calls.Load())
}

func TestResetRefetchesMountedPages(t *testing.T) {
	var calls atomic.Int32
	m, _ := newManager(t, okFetcher(&calls))
	mounted := m.Create()
	m.Create()

	key := query.NewKey("/reports/fabric/cost-sheet", filter.Set{})
	binding := mounted.Mount("fabric/cost-sheet")
	binding.Apply(key, true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, binding.Wait(ctx).IsSuccess())

	assert.Equal(t, 1, m.Reset())
	assert.Equal(t, query.StatusIdle, binding.State().Status)

	binding.Apply(key, true)
	require.True(t, binding.Wait(ctx).IsSuccess())
	assert.EqualValues(t, 2, calls.Load())
}

func TestSweepRemovesIdleWorkspaces(t *testing.T) {
	var calls atomic.Int32
	m, now := newManager(t, okFetcher(&calls))
	idle := m.Create()
	idle.Mount("sales/daily")

	*now = now.Add(45 * time.Second)
	active := m.Create()
	assert.Equal(t, 0, m.Sweep())

	*now = now.Add(30 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Nil(t, m.Get(idle.ID()))
	assert.Same(t, active, m.Get(active.ID()))
	assert.Empty(t, idle.Mounted())
}

func TestRunStopsWithContext(t *testing.T) {
	var calls atomic.Int32
	m, _ := newManager(t, okFetcher(&calls))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}
