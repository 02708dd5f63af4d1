package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedFetcher struct {
	bodies []string
	errs   []error
	calls  int
}

func (f *scriptedFetcher) Fetch(context.Context, string) ([]byte, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return []byte(f.bodies[i]), nil
}

// TestStaleEntryReplacedInPlace verifies a refetch overwrites the entry and its timestamp
func TestStaleEntryReplacedInPlace(t *testing.T) {
	now := time.Unix(1000, 0)
	f := &scriptedFetcher{bodies: []string{`{"n":1}`, `{"n":2}`}}
	c := New(f, time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if _, err := c.Get(ctx, "u"); err != nil {
		t.Fatalf("first Get error: %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := c.Get(ctx, "u"); err != nil {
		t.Fatalf("second Get error: %v", err)
	}

	if len(c.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(c.entries))
	}
	e := c.entries["u"]
	if string(e.Payload) != `{"n":2}` || !e.FetchedAt.Equal(now) {
		t.Errorf("entry = %s @ %v, want {\"n\":2} @ %v", e.Payload, e.FetchedAt, now)
	}
}

// TestFailedRefetchKeepsPreviousEntry verifies a network failure leaves the stored payload alone
func TestFailedRefetchKeepsPreviousEntry(t *testing.T) {
	now := time.Unix(0, 0)
	f := &scriptedFetcher{
		bodies: []string{`{"ok":true}`, ""},
		errs:   []error{nil, errors.New("dial tcp: i/o timeout")},
	}
	c := New(f, time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if _, err := c.Get(ctx, "u"); err != nil {
		t.Fatalf("first Get error: %v", err)
	}
	stored := c.entries["u"].FetchedAt
	now = now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "u"); err == nil {
		t.Fatal("expected refetch to fail")
	}

	e, ok := c.entries["u"]
	if !ok || string(e.Payload) != `{"ok":true}` || !e.FetchedAt.Equal(stored) {
		t.Errorf("entry after failure = %s @ %v, %v", e.Payload, e.FetchedAt, ok)
	}
}

// TestFetchStoresNothing verifies the uncached read path
func TestFetchStoresNothing(t *testing.T) {
	f := &scriptedFetcher{bodies: []string{`{}`}}
	c := New(f, time.Minute)

	if _, err := c.Fetch(context.Background(), "random"); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(c.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(c.entries))
	}
}

func TestNonPositiveTTLUsesDefault(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		if c := New(&scriptedFetcher{}, ttl); c.ttl != DefaultTTL {
			t.Errorf("New(ttl=%v).ttl = %v, want %v", ttl, c.ttl, DefaultTTL)
		}
	}
}
