// Package query caches report responses keyed by endpoint and filter values.
//
// Three layers cooperate. Shared deduplicates concurrent fetches for the same
// key across the process and optionally persists results in Redis. Cache holds
// the results a single mounted page has seen. Binding tracks which key a page
// currently displays so late responses for older keys are never shown.
package query

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
)

// Key identifies a report request. Two keys are equal when their endpoints
// match and their filters hold the same non-empty values.
type Key struct {
	Endpoint string
	Filters  filter.Set
}

// NewKey builds a key with a private copy of filters.
func NewKey(endpoint string, filters filter.Set) Key {
	return Key{Endpoint: endpoint, Filters: filters.Clone()}
}

// String renders the structural form of the key.
func (k Key) String() string {
	canonical := k.Filters.Canonical()
	if canonical == "" {
		return k.Endpoint
	}
	return k.Endpoint + "?" + canonical
}

// Equal compares keys structurally.
func (k Key) Equal(other Key) bool { return k.String() == other.String() }

// Fetcher loads the raw payload for a key.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (json.RawMessage, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key Key) (json.RawMessage, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, key Key) (json.RawMessage, error) {
	return f(ctx, key)
}

// Getter is the subset of the backend client used for fetching.
type Getter interface {
	Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// FromGetter issues one backend request per fetch.
func FromGetter(g Getter) Fetcher {
	return FetcherFunc(func(ctx context.Context, key Key) (json.RawMessage, error) {
		return g.Get(ctx, key.Endpoint, key.Filters.Values())
	})
}

// Forgetter is implemented by fetchers that memoise results and can drop them.
type Forgetter interface {
	Forget(ctx context.Context, key Key) error
}
