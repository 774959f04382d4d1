package httpclient

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config configures the HTTP client behavior.
type Config struct {
	// BaseURL is prefixed to relative request paths.
	BaseURL string

	// Auth is applied to every request unless the request carries its own.
	Auth Auth

	// Timeout bounds one request attempt (default: 30s).
	Timeout time.Duration

	// MaxRetries for retryable responses. Zero or negative disables retries.
	MaxRetries int

	// RetryBackoff is the first backoff step, doubled on every attempt (default: 500ms).
	RetryBackoff time.Duration

	// RateLimit in requests per second (default: 10).
	RateLimit float64

	// RateBurst is the maximum burst size (default: 5).
	RateBurst int

	// Headers added to all requests.
	Headers map[string]string

	// UserAgent string (default: "listing-sync/1.0").
	UserAgent string

	// Transport allows injecting a custom round tripper.
	Transport http.RoundTripper

	// Logger receives retry diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Client is a rate-limited, retry-capable HTTP client.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a client, filling unset options with defaults.
func New(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if config.UserAgent == "" {
		config.UserAgent = "listing-sync/1.0"
	}
	if config.Auth == nil {
		config.Auth = NoAuth{}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		logger:  logger,
	}
}

// RetryPolicy selects which error responses a request retries.
type RetryPolicy int

const (
	// RetryAll retries 429 and 5xx responses. Use it for idempotent calls.
	RetryAll RetryPolicy = iota

	// RetryRateLimited retries 429 only. A 5xx may arrive after the server
	// applied the write, so writes must not be replayed on it.
	RetryRateLimited
)

func (p RetryPolicy) allows(err error) bool {
	if p == RetryRateLimited {
		var httpErr *HTTPError
		return errors.As(err, &httpErr) && httpErr.IsRateLimited()
	}
	return IsRetryable(err)
}

// Request is one HTTP call.
type Request struct {
	Method string

	// Path is joined to the base URL. Absolute URLs are used as-is.
	Path string

	Query   url.Values
	Headers map[string]string
	Body    []byte

	// Auth overrides the client-wide credentials.
	Auth Auth

	// Retry is the retry policy of the request (default: RetryAll).
	Retry RetryPolicy
}

// NewJSONRequest builds a request carrying body encoded as JSON.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
	}

	return &Request{
		Method: method,
		Path:   path,
		Body:   data,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// Response wraps an HTTP response with its body read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals the response body into target.
func (r *Response) JSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do executes a request with rate limiting and retry.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.doOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !req.Retry.allows(err) || attempt == c.config.MaxRetries {
			break
		}

		backoff := c.config.RetryBackoff << uint(attempt)
		c.logger.Debug("Retrying request",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	auth := req.Auth
	if auth == nil {
		auth = c.config.Auth
	}
	auth.Apply(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}
	if resp.StatusCode >= 400 {
		return response, &HTTPError{
			Method:     req.Method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
		}
	}
	return response, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	full := c.config.BaseURL
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		full = path
	} else if path != "" {
		full = strings.TrimSuffix(full, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	if len(query) == 0 {
		return full, nil
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	merged := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPatch, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// PostForm performs a POST request with a url-encoded form body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   []byte(form.Encode()),
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
	})
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	req, err := NewJSONRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error.
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError returns true if this is a server error.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsRetryable reports whether err is a rate limit or server error response.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRateLimited() || httpErr.IsServerError()
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
