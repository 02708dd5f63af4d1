package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// mustOpen creates an in-memory store and registers cleanup
func mustOpen(t *testing.T) (*Store, context.Context) {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, context.Background()
}

func TestGetMissingKey(t *testing.T) {
	s, ctx := mustOpen(t)

	v, ok, err := s.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ok || v != "" {
		t.Errorf("Get(missing) = %q, %v; want empty, false", v, ok)
	}
}

func TestSetOverwrites(t *testing.T) {
	s, ctx := mustOpen(t)

	if err := s.Set(ctx, KeyFavorites, `["1"]`); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Set(ctx, KeyFavorites, `["1","2"]`); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	v, ok, err := s.Get(ctx, KeyFavorites)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if v != `["1","2"]` {
		t.Errorf("value = %q, want overwritten value", v)
	}
}

func TestDelete(t *testing.T) {
	s, ctx := mustOpen(t)

	_ = s.Set(ctx, "k", "v")
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("key should be gone after Delete")
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

// TestPersistsAcrossReopen verifies values survive closing the database
func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recipefinder.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Set(ctx, KeyFavorites, `["52772"]`); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_ = s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = s2.Close() }()

	v, ok, err := s2.Get(ctx, KeyFavorites)
	if err != nil || !ok || v != `["52772"]` {
		t.Errorf("after reopen Get = %q, %v, %v", v, ok, err)
	}
}

func TestFileDatabaseWaitsOnLocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipefinder.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer func() { _ = s.Close() }()

	var ms int64
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&ms); err != nil {
		t.Fatalf("PRAGMA busy_timeout error: %v", err)
	}
	if ms != BusyTimeout.Milliseconds() {
		t.Errorf("busy_timeout = %d, want %d", ms, BusyTimeout.Milliseconds())
	}
}

func TestThemeDefaultsToDark(t *testing.T) {
	s, ctx := mustOpen(t)

	theme, err := s.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme error: %v", err)
	}
	if theme != ThemeDark {
		t.Errorf("Theme = %q, want dark", theme)
	}
}

func TestThemeRoundTrip(t *testing.T) {
	s, ctx := mustOpen(t)

	if err := s.SetTheme(ctx, ThemeLight); err != nil {
		t.Fatalf("SetTheme error: %v", err)
	}
	if theme, _ := s.Theme(ctx); theme != ThemeLight {
		t.Errorf("Theme = %q, want light", theme)
	}

	if err := s.SetTheme(ctx, ThemeDark); err != nil {
		t.Fatalf("SetTheme error: %v", err)
	}
	v, _, _ := s.Get(ctx, KeyTheme)
	if v != "" {
		t.Errorf("dark should be stored as empty token, got %q", v)
	}
	if theme, _ := s.Theme(ctx); theme != ThemeDark {
		t.Errorf("Theme = %q, want dark", theme)
	}
}
