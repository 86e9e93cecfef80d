// Package api is the HTTP client for the external billing API.
//
// The client exposes JSON GET/POST primitives plus typed wrappers for
// the endpoints the dashboard consumes. It performs no retries and no
// caching; freshness and retry policy belong to the query cache layer
// and its callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billingdash/internal/logger"
)

// Client issues requests against a fixed base URL.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client for the given base URL. A zero timeout leaves
// request deadlines entirely to the caller's context.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// Get issues a GET request for path with the given query parameters and
// decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("api: build GET %s: %w", path, err)
	}
	return c.do("Get", req, out)
}

// Post issues a POST request with a JSON-encoded body and decodes the
// JSON response into out. out may be nil when the response is an ack.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("api: encode POST %s body: %w", path, err)
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("api: build POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do("Post", req, out)
}

// Download fetches an absolute URL (typically a signed URL outside the
// API base) and returns the raw body.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("api: build download request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.wrapTransport("Download", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{Op: "Download", URL: rawURL, Status: resp.StatusCode, Body: body}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	log := logger.WithComponent("api")
	start := time.Now()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.wrapTransport(op, req.URL.String(), err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{Op: op, URL: req.URL.String(), Status: resp.StatusCode, Body: body}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) wrapTransport(op, url string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s %s", ErrRequestCanceled, op, url)
	}
	return &NetworkError{Op: op, URL: url, Err: err}
}
