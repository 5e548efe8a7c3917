// Package backend talks to the garment reporting API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const maxBody = 16 << 20

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Client issues read-only requests against the reporting API.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url %q must be http or https", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.http = hc
	}
	return c
}

// Resolve expands {name} placeholders in endpoint from params and returns the
// full request URL. Consumed params are not repeated in the query string.
func (c *Client) Resolve(endpoint string, params url.Values) (string, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	var missing []string
	path := placeholderPattern.ReplaceAllStringFunc(endpoint, func(match string) string {
		name := match[1 : len(match)-1]
		value := query.Get(name)
		if value == "" {
			missing = append(missing, name)
			return match
		}
		query.Del(name)
		return url.PathEscape(value)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrMissingPathParam, strings.Join(missing, ", "), endpoint)
	}
	target := *c.base
	target.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	target.RawQuery = query.Encode()
	return target.String(), nil
}

// Get fetches endpoint and returns the JSON body.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	target, err := c.Resolve(endpoint, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("backend: %s: %w", endpoint, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Warn("backend request failed",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
		return nil, &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrTransport, endpoint, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, endpoint)
	}
	c.logger.Debug("backend request",
		slog.String("endpoint", endpoint),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))
	return json.RawMessage(body), nil
}

// Decode unmarshals a payload into T. Type mismatches surface as ErrMalformed.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}
