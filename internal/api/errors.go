package api

import (
	"errors"
	"fmt"
)

// Common API client errors
var (
	// ErrRequestCanceled is returned when a request is canceled via context.
	ErrRequestCanceled = errors.New("request was canceled")

	// ErrInvalidBaseURL is returned when the configured base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("invalid API base URL")

	// ErrMalformedResponse is returned when a 2xx response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed API response body")
)

// NetworkError indicates a transport-level failure: the request never
// produced an HTTP response (DNS failure, connection refused, timeout).
type NetworkError struct {
	// Op is the operation that failed (e.g., "Get", "Post", "Download").
	Op string

	// URL is the request URL.
	URL string

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: network error: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError indicates the server answered with a non-2xx status.
// Body holds the raw response body for diagnostics and user messages.
type HTTPError struct {
	Op     string
	URL    string
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("api: %s %s: HTTP %d: %s", e.Op, e.URL, e.Status, truncate(e.Body, 200))
	}
	return fmt.Sprintf("api: %s %s: HTTP %d", e.Op, e.URL, e.Status)
}

// IsHTTPStatus reports whether err is an HTTPError with the given status.
func IsHTTPStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
