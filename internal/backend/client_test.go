package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/api/", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestGetExpandsPathParams(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"summary":{"total_transactions":3}}`))
	})

	raw, err := client.Get(context.Background(), "/reports/sales/daily/{report_date}", url.Values{
		"report_date": {"2024-03-01"},
		"panel_id":    {"5"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":{"total_transactions":3}}`, string(raw))
	assert.Equal(t, "/api/reports/sales/daily/2024-03-01", gotPath)
	assert.Equal(t, "panel_id=5", gotQuery)
}

func TestResolveMissingPathParam(t *testing.T) {
	client, err := NewClient("http://localhost:8000", time.Second, nil)
	require.NoError(t, err)
	_, err = client.Resolve("/reports/fabric/stock-sheet/by-type/{fabric_type}", nil)
	assert.ErrorIs(t, err, ErrMissingPathParam)
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://reports", time.Second, nil)
	assert.Error(t, err)
}

func TestGetStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := client.Get(context.Background(), "/reports/sales/bundle-sku", nil)
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusBadGateway, status.Status)
	assert.Equal(t, "boom", status.Body)
	assert.True(t, Retryable(err))
}

func TestGetMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops`))
	})
	_, err := client.Get(context.Background(), "/reports/fabric/cost-sheet", nil)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.False(t, Retryable(err))
}

func TestGetTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client, err := NewClient(srv.URL, time.Second, nil)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/reports/fabric/cost-sheet", nil)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, Retryable(err))
}

func TestGetCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Get(ctx, "/reports/fabric/cost-sheet", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, Retryable(err))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(&StatusError{Status: http.StatusNotFound}))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", &StatusError{Status: 503})))
	assert.False(t, Retryable(errors.New("other")))
}

func TestDecode(t *testing.T) {
	type row struct {
		SKU string `json:"sku"`
	}
	rows, err := Decode[[]row](json.RawMessage(`[{"sku":"A"}]`))
	require.NoError(t, err)
	assert.Equal(t, []row{{SKU: "A"}}, rows)

	_, err = Decode[[]row](json.RawMessage(`{"sku":"A"}`))
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = Decode[[]row](nil)
	assert.ErrorIs(t, err, ErrMalformed)
}
