package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/garment-dashboard/internal/app"
	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
)

type reportBackend struct {
	mu   sync.Mutex
	hits []string
}

func (b *reportBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits = append(b.hits, r.URL.RequestURI())
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/reports/sales/discount-general":
		_, _ = io.WriteString(w, `[{"sku":"TS-01","product_name":"Tee","mrp":500,"selling_price":400,"discount_percent":20,"discount_bucket":"20-30%","total_sold":10}]`)
	case "/reports/sales/bundle-sku":
		_, _ = io.WriteString(w, `[]`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func (b *reportBackend) requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.hits...)
}

func newBackend(t *testing.T) (*reportBackend, string) {
	t.Helper()
	t.Setenv("BACKEND_URL", "")
	t.Setenv("REDIS_ADDR", "")
	stub := &reportBackend{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv.URL
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestListCommand(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Slug")
	assert.Contains(t, out, reports.OverviewSlug)
	for _, slug := range reports.DefaultRegistry().Slugs() {
		assert.Contains(t, out, slug)
	}

	out, _, err = execute(t, "list", "--section", "fabric")
	require.NoError(t, err)
	assert.Contains(t, out, "fabric/cost-sheet")
	assert.NotContains(t, out, "sales/daily")
	assert.NotContains(t, out, reports.OverviewSlug)

	_, _, err = execute(t, "list", "--section", "marketing")
	assert.EqualError(t, err, `unknown section "marketing"`)
}

func TestShowRendersTable(t *testing.T) {
	stub, url := newBackend(t)

	out, _, err := execute(t, "show", "sales/discount-general", "--backend-url", url)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "GENERAL DISCOUNT REPORT\n"))
	assert.Contains(t, out, "Discount Details")
	assert.Contains(t, out, "TS-01")
	assert.Equal(t, []string{"/reports/sales/discount-general"}, stub.requests())
}

func TestShowAppliesFilters(t *testing.T) {
	stub, url := newBackend(t)

	_, _, err := execute(t, "show", "sales/discount-general", "--backend-url", url,
		"--filter", "start_date=2024-01-01", "--filter", "end_date=2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, []string{"/reports/sales/discount-general?end_date=2024-01-31&start_date=2024-01-01"}, stub.requests())
}

func TestShowDisabledPageIssuesNoRequest(t *testing.T) {
	stub, url := newBackend(t)

	out, _, err := execute(t, "show", "sales/panel-wise", "--backend-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, reports.DisabledMessage)
	assert.Empty(t, stub.requests())
}

func TestShowOutputs(t *testing.T) {
	_, url := newBackend(t)

	out, _, err := execute(t, "show", "sales/discount-general", "--backend-url", url, "-o", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "SKU,Product Name,MRP,Selling Price,Discount %,Discount Bucket,Units Sold\n"))
	assert.Contains(t, out, "\nTS-01,Tee,")

	out, _, err = execute(t, "show", "sales/discount-general", "--backend-url", url, "-o", "json")
	require.NoError(t, err)
	var env struct {
		Data      []map[string]any `json:"data"`
		IsLoading bool             `json:"isLoading"`
		IsError   bool             `json:"isError"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.False(t, env.IsError)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "TS-01", env.Data[0]["sku"])

	_, _, err = execute(t, "show", "sales/bundle-sku", "--backend-url", url, "-o", "csv")
	assert.EqualError(t, err, "sales/bundle-sku has no table rows to export")

	_, _, err = execute(t, "show", "sales/bundle-sku", "--backend-url", url, "-o", "yaml")
	assert.EqualError(t, err, `unsupported output "yaml"`)
}

func TestShowRejectsBadInput(t *testing.T) {
	_, url := newBackend(t)

	_, _, err := execute(t, "show", "sales/unknown", "--backend-url", url)
	assert.ErrorContains(t, err, `unknown report "sales/unknown"`)

	_, _, err = execute(t, "show", "inventory/fast-moving", "--backend-url", url, "--filter", "colour=red")
	assert.ErrorContains(t, err, `unknown filter "colour"`)

	_, _, err = execute(t, "show", "inventory/fast-moving", "--backend-url", url, "--filter", "days_period=45")
	assert.EqualError(t, err, "invalid value for filter(s) days_period")

	_, _, err = execute(t, "show", "inventory/fast-moving", "--backend-url", url, "--filter", "days_period")
	assert.EqualError(t, err, `filter "days_period" must be name=value`)
}

func TestShowRequiresBackend(t *testing.T) {
	newBackend(t)
	_, _, err := execute(t, "show", reports.OverviewSlug)
	assert.ErrorContains(t, err, "BackendURL")
}

func TestInlineWarmup(t *testing.T) {
	stub, url := newBackend(t)

	out, stderr, err := execute(t, "warmup", "--inline", "--backend-url", url, reports.OverviewSlug, "sales/bundle-sku")
	require.NoError(t, err)
	assert.Equal(t, "warmed 2, skipped 0, failed 0\n", out)
	assert.Contains(t, stderr, "REDIS_ADDR is not set")
	assert.ElementsMatch(t, []string{"/reports/summary/all", "/reports/sales/bundle-sku"}, stub.requests())

	_, _, err = execute(t, "warmup", "--inline", "--backend-url", url, "sales/unknown")
	assert.ErrorContains(t, err, `unknown report "sales/unknown"`)
}

func TestQueueCommandsNeedRedis(t *testing.T) {
	_, url := newBackend(t)

	for _, args := range [][]string{
		{"warmup"},
		{"invalidate"},
		{"invalidate", "--now"},
		{"queue"},
	} {
		_, _, err := execute(t, append(args, "--backend-url", url)...)
		assert.ErrorIs(t, err, app.ErrRedisRequired, strings.Join(args, " "))
	}
}

func TestInvalidateNow(t *testing.T) {
	_, url := newBackend(t)
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("reports:version", "4"))

	out, _, err := execute(t, "invalidate", "--now", "--backend-url", url, "--redis-addr", mr.Addr())
	require.NoError(t, err)
	assert.Equal(t, "report cache version is now 5\n", out)
}

func TestShowExamplesResolve(t *testing.T) {
	reg := reports.DefaultRegistry()
	for _, line := range strings.Split(newShowCmd(&options{}).Example, "\n") {
		fields := strings.Fields(line)
		require.GreaterOrEqual(t, len(fields), 3, line)
		page, err := lookupPage(reg, fields[2])
		require.NoError(t, err, line)

		var raw []string
		for i := 3; i < len(fields)-1; i++ {
			if fields[i] == "--filter" {
				raw = append(raw, fields[i+1])
			}
		}
		filters, err := resolveFilters(page, raw, time.Now())
		require.NoError(t, err, line)
		assert.True(t, page.Enabled(filters), line)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (json.RawMessage, bool, error) { return nil, false, nil }
func (failingStore) Set(context.Context, string, json.RawMessage) error { return nil }
func (failingStore) Delete(context.Context, string) error {
	return errors.New("redis unavailable")
}

func TestRefreshLogsForgetFailure(t *testing.T) {
	reg := reports.DefaultRegistry()
	page, err := lookupPage(reg, "fabric/cost-sheet")
	require.NoError(t, err)
	shared := query.NewShared(query.FetcherFunc(func(context.Context, query.Key) (json.RawMessage, error) {
		return json.RawMessage(`{"detailed_costs":[]}`), nil
	}), query.SharedConfig{Store: failingStore{}})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	res := fetch(context.Background(), logger, shared, page, filter.Set{}, true)
	assert.True(t, res.IsSuccess())
	assert.Contains(t, logs.String(), "report cache forget failed")
	assert.Contains(t, logs.String(), "redis unavailable")
}
