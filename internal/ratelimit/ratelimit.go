// Package ratelimit provides the HTTP transport used to read from TheMealDB.
// Requests are paced to an optional minimum spacing and 429 responses are
// reported as RateLimitError. Nothing is retried automatically.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"recipefinder/internal/metrics"
	"recipefinder/internal/utils"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Config holds configuration for the upstream HTTP client.
type Config struct {
	// Timeout bounds a single request including reading the body.
	// Default: 10 seconds
	Timeout time.Duration

	// MinInterval is the minimum spacing between the start of two requests.
	// Zero disables pacing.
	MinInterval time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Metrics is an optional Prometheus recorder.
	Metrics *metrics.Recorder

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// Client is a paced HTTP GET client.
type Client struct {
	httpClient  *http.Client
	minInterval time.Duration
	userAgent   string
	metrics     *metrics.Recorder

	mu   sync.Mutex
	next time.Time
}

// NewClient creates a new client with the given configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "recipefinder"
	}

	return &Client{
		httpClient:  httpClient,
		minInterval: cfg.MinInterval,
		userAgent:   userAgent,
		metrics:     cfg.Metrics,
	}
}

// Fetch performs one GET and returns the body of a 2xx response.
// Transport failures and non-2xx statuses return *utils.NetworkError;
// a 429 additionally wraps a *RateLimitError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, &utils.NetworkError{URL: url, Err: err}
	}

	endpoint := endpointName(url)
	start := time.Now()
	body, err := c.do(ctx, url)
	elapsed := time.Since(start).Seconds()

	c.metrics.UpstreamRequest(endpoint, requestResult(err), elapsed)
	return body, err
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &utils.NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &utils.NetworkError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        &RateLimitError{RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"))},
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &utils.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &utils.NetworkError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// wait blocks until this request's pacing slot, or ctx is done.
func (c *Client) wait(ctx context.Context) error {
	if c.minInterval <= 0 {
		return ctx.Err()
	}

	c.mu.Lock()
	now := time.Now()
	slot := c.next
	if slot.Before(now) {
		slot = now
	}
	c.next = slot.Add(c.minInterval)
	c.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func requestResult(err error) string {
	var rle *RateLimitError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.As(err, &rle):
		return metrics.ResultRateLimited
	default:
		return metrics.ResultError
	}
}

// endpointName reduces ".../lookup.php?i=1" to "lookup" for metric labels.
func endpointName(rawURL string) string {
	p := rawURL
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSuffix(path.Base(p), ".php")
}

// RateLimitError reports an HTTP 429 from the upstream API.
type RateLimitError struct {
	RetryAfter *time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("API rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
	}
	return "API rate limit exceeded"
}

// ParseRetryAfter parses the Retry-After header value.
// It supports both seconds format (integer) and HTTP-date format.
// Returns nil if the value is invalid or empty.
func ParseRetryAfter(value string) *time.Duration {
	if value == "" {
		return nil
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds < 0 {
			return nil
		}
		d := time.Duration(seconds) * time.Second
		return &d
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}

	return nil
}
