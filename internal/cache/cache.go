// Package cache provides a time-to-live cache over idempotent upstream reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"recipefinder/internal/metrics"
	"recipefinder/internal/utils"
)

// DefaultTTL is how long a fetched payload stays fresh.
const DefaultTTL = 5 * time.Minute

// Fetcher performs one network read and returns the response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Entry is one cached response keyed by request URL.
type Entry struct {
	Payload   json.RawMessage
	FetchedAt time.Time
}

// Fresh reports whether the entry is still valid at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Cache is safe for concurrent use. Concurrent misses for the same URL are
// not coalesced; each issues its own fetch and the last one stored wins.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Recorder

	mu      sync.RWMutex
	entries map[string]Entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics records hits, misses and failures.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Cache) {
		c.metrics = r
	}
}

// New creates a cache in front of f. A non-positive ttl uses DefaultTTL.
func New(f Fetcher, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		fetcher: f,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the payload for url, from memory when a fresh entry exists and
// from the network otherwise. Failures are *utils.NetworkError and leave any
// previous entry untouched.
func (c *Cache) Get(ctx context.Context, url string) (json.RawMessage, error) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()

	if ok && entry.Fresh(c.now(), c.ttl) {
		c.metrics.CacheLookup(metrics.ResultHit)
		utils.Debugf("cache hit: %s", url)
		return entry.Payload, nil
	}

	payload, err := c.Fetch(ctx, url)
	if err != nil {
		c.metrics.CacheLookup(metrics.ResultError)
		return nil, err
	}
	c.metrics.CacheLookup(metrics.ResultMiss)

	c.mu.Lock()
	c.entries[url] = Entry{Payload: payload, FetchedAt: c.now()}
	c.mu.Unlock()

	return payload, nil
}

// Fetch reads url from the network without consulting or filling the cache.
func (c *Cache) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	utils.Debugf("fetching %s", url)
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		var ne *utils.NetworkError
		if errors.As(err, &ne) {
			return nil, err
		}
		return nil, &utils.NetworkError{URL: url, Err: err}
	}
	if !json.Valid(body) {
		return nil, &utils.NetworkError{URL: url, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}
