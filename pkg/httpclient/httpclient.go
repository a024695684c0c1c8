// Package httpclient provides the resty-backed HTTP client shared by fetchers, downloaders and publishers.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response is the subset of an HTTP response callers inspect.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs HTTP requests with per-call headers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// Option tunes the underlying resty client.
type Option func(*resty.Client)

// WithRetryCount overrides the retry budget. Zero disables retries.
func WithRetryCount(n int) Option {
	return func(rc *resty.Client) { rc.SetRetryCount(n) }
}

// WithResponseBodyLimit makes requests fail once a response body exceeds n bytes, before it is fully read.
func WithResponseBodyLimit(n int) Option {
	return func(rc *resty.Client) { rc.SetResponseBodyLimit(n) }
}

// NewRestyClient returns a Client with the given timeout and a small retry budget for transient failures.
// Only GET requests are retried so a publisher never delivers the same event twice.
func NewRestyClient(timeout time.Duration, opts ...Option) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(retryable)
	for _, opt := range opts {
		opt(rc)
	}
	return &restyClient{rc: rc}
}

// retryable retries idempotent GETs on transport errors and 5xx responses.
func retryable(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= http.StatusInternalServerError
}

// Get issues a GET request.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, http.MethodGet, url, headers, nil)
}

// Do issues a request with the given method and optional body.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.rc.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(strings.ToUpper(method), url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), url, err)
	}
	return resp, nil
}
