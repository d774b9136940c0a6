// Package httpds serves source extracts published over HTTP(S). Transient
// failures (transport errors, 429 and 5xx) are retried with exponential
// backoff; 404 and 410 mean the extract does not exist.
package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config configures the client. Zero values get defaults: Timeout 30s,
// MaxRetries 3, InitialBackoff 200ms, MaxBackoff 5s. A negative MaxRetries
// disables retries.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Transport replaces the default transport, mainly for tests.
	Transport http.RoundTripper
}

// Client is an HTTP GET client with retry and backoff.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// wait is injectable to make tests fast and deterministic.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		wait:           sleepWithContext,
	}
}

// Get fetches url. The caller must close the body of a returned response,
// which always has a 2xx status.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("httpds: GET %s: status %d: %w", url, resp.StatusCode, os.ErrNotExist)
		case isRetryableStatus(resp.StatusCode):
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: GET %s: retryable status %d", url, resp.StatusCode)
		default:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("httpds: GET %s: status %d", url, resp.StatusCode)
		}

		if attempt+1 >= attempts {
			break
		}
		if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Remote is a datasource backed by one URL.
type Remote struct {
	client *Client
	url    string
}

// NewRemote binds url to client.
func NewRemote(client *Client, url string) *Remote {
	return &Remote{client: client, url: url}
}

// Open issues the GET and returns the response body.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// IsURL reports whether path names an http or https resource.
func IsURL(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt, clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial << attempt
	if d <= 0 || d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
