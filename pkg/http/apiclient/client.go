// Package apiclient talks JSON to the quiz backend API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Options tunes the client. Zero values fall back to defaults.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Metrics    *Metrics
	Logger     zerolog.Logger
}

// Client builds backend URLs and normalizes backend failures into *Error.
type Client struct {
	base       string
	httpClient *http.Client
	metrics    *Metrics
	logger     zerolog.Logger
}

// RequestOption mutates an outgoing request before it is sent.
type RequestOption func(*http.Request)

// New validates the backend origin and returns a client for it.
func New(baseURL string, opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base URL is empty")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("backend base URL must be absolute http(s): %q", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:       base,
		httpClient: httpClient,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("component", "apiclient").Logger(),
	}, nil
}

// URL joins a relative API path onto the configured origin.
// A base already ending in /api absorbs a leading "api/" segment of path.
func (c *Client) URL(path string) string {
	clean := strings.TrimLeft(path, "/")
	if strings.HasSuffix(c.base, "/api") && strings.HasPrefix(clean, "api/") {
		clean = strings.TrimPrefix(clean, "api/")
	}
	return c.base + "/" + clean
}

// WithBearer attaches the backend-issued token. Empty tokens are skipped.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		if token == "" {
			return
		}
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(r)
	}
}

// WithCookie forwards a backend cookie (e.g. the admin access grant).
func WithCookie(name, value string) RequestOption {
	return func(r *http.Request) {
		if value == "" {
			return
		}
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

// Do sends a JSON request. Non-2xx responses are drained and returned as *Error;
// on success the caller owns resp.Body.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, path, "error", time.Since(start))
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.metrics.observe(method, path, statusClass(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := newError(resp)
		c.logger.Debug().
			Int("status", apiErr.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("message", apiErr.Message).
			Msg("backend returned error status")
		return nil, apiErr
	}
	return resp, nil
}

// GetJSON issues a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp.Body, out)
}

// PostJSON posts body as JSON and decodes the response into out (which may be nil).
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	resp, err := c.Do(ctx, http.MethodPost, path, body, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp.Body, out)
}

// decode treats empty or malformed bodies as an empty payload.
func (c *Client) decode(r io.Reader, out interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Debug().Err(err).Msg("backend body is not valid JSON, treating as empty")
	}
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
