// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient talks to the institute REST backend. It owns the request
// loop (per-attempt timeout, bounded retries with exponential backoff), the
// error normalization every page relies on, and the typed resource clients.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Client defaults.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
	MaxResponseLen     = 10 << 20
	UserAgent          = "instituto-site/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration // per attempt
	MaxAttempts int
	BackoffBase time.Duration // wait before the second attempt; doubles afterwards
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Metrics     *Metrics
}

// Client performs requests against the backend base URL.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	logger      *slog.Logger
	metrics     *Metrics
}

// New creates a client. Zero options take the package defaults.
func New(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		http:        opts.HTTPClient,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if c.http == nil {
		c.http = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.backoffBase <= 0 {
		c.backoffBase = DefaultBackoffBase
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one backend call. Body is replayed on every attempt.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
}

// Response is a successful (2xx) backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsJSON reports whether the response declares a JSON content type.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Text returns the raw body.
func (r *Response) Text() string {
	return string(r.Body)
}

// Do sends the request. Attempts are sequential; network failures and
// per-attempt timeouts are retried up to the attempt limit, an HTTP error
// status or a cancelled ctx ends the loop at once. The last error is returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.backoffBase))

	var (
		resp    *Response
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := c.attempt(ctx, req)
		if err == nil {
			resp = r
			return nil
		}
		if ctx.Err() == nil && isTransient(err) {
			if attempt < c.maxAttempts {
				c.metrics.retried(req.Method)
				c.logger.Warn("backend request failed, retrying",
					"method", req.Method,
					"path", req.Path,
					"attempt", attempt,
					"error", err)
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func isTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// attempt performs a single request bounded by the client timeout.
func (c *Client) attempt(parent context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.Method, "error", time.Since(start))
		return nil, c.transportError(parent, ctx, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseLen))
	if err != nil {
		c.metrics.observe(req.Method, "error", time.Since(start))
		return nil, c.transportError(parent, ctx, err)
	}
	c.metrics.observe(req.Method, strconv.Itoa(res.StatusCode), time.Since(start))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{
			Status:     res.StatusCode,
			StatusText: statusText(res),
			Body:       body,
		}
	}

	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil
}

func (c *Client) transportError(parent, attemptCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		text = http.StatusText(res.StatusCode)
	}
	return text
}

func (c *Client) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request %s %s: %w", method, req.Path, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", UserAgent)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if token := TokenFromContext(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

// Decode converts a response into T. JSON responses are unmarshalled; any
// response decoded into a string yields the raw text. A successful response
// that is not JSON leaves any other T at its zero value.
func Decode[T any](resp *Response) (T, error) {
	var out T
	if s, ok := any(&out).(*string); ok {
		*s = resp.Text()
		return out, nil
	}
	if !resp.IsJSON() || len(bytes.TrimSpace(resp.Body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// Get fetches path and decodes the response.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	return Send[T](ctx, c, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Send performs req and decodes the response.
func Send[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}

type tokenKey struct{}

// WithToken returns a context carrying the bearer token for backend calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token carried by ctx, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
