package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the client.
var (
	ErrTransport        = errors.New("backend: transport failure")
	ErrMalformed        = errors.New("backend: malformed response")
	ErrMissingPathParam = errors.New("backend: missing path parameter")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: %s responded %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("backend: %s responded %d: %s", e.Endpoint, e.Status, e.Body)
}

// Retryable reports whether a failed request may succeed on another attempt.
// Transport failures and server errors qualify; client errors, malformed
// payloads and cancellation do not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status >= http.StatusInternalServerError
	}
	return errors.Is(err, ErrTransport)
}
