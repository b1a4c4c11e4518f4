// Package fetch provides the HTTP client shared by the metrics poller and the
// device action triggers.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// the device serves a handful of clients at most, keep the pool small
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte
	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int
	// Latency is the total time taken for the request.
	Latency time.Duration
	// Error contains any transport or body read error.
	// A non-2xx status is not an error.
	Error error
}

// Client is an HTTP client wrapper for talking to the device.
//
// Client has no global timeout. A per-request timeout may be passed to
// [Client.Get]; zero means the request runs until it settles or ctx is done.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new [Client] with a small keep-alive connection pool.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// NewClientWith wraps an existing *http.Client. Used by tests and by callers
// that need a custom transport.
func NewClientWith(hc *http.Client) *Client {
	if hc == nil {
		return NewClient()
	}
	return &Client{httpClient: hc}
}

// Get performs an HTTP GET and returns a structured [Response].
//
// Get always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil receiver. The client remains
// usable after Close.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
