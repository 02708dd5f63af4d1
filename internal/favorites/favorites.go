// Package favorites keeps the user's saved recipe ids in sync with durable
// storage. Every mutation is persisted before the call returns.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"recipefinder/internal/metrics"
	"recipefinder/internal/storage"
	"recipefinder/internal/utils"
)

// ErrEmptyID is returned when a mutation is given a blank recipe id.
var ErrEmptyID = errors.New("recipe id is required")

// KV is the subset of durable storage the store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store is an insertion-ordered set of recipe ids. Safe for concurrent use.
type Store struct {
	kv      KV
	key     string
	metrics *metrics.Recorder

	mu    sync.RWMutex
	ids   []string
	index map[string]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records mutations.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Store) {
		s.metrics = r
	}
}

// WithKey overrides the storage key (default storage.KeyFavorites).
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// New creates an empty store. Call Load before use.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		key:   storage.KeyFavorites,
		index: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory set with the stored one. Absent or malformed
// data yields an empty set; malformed data is logged, not returned.
// A storage read failure is returned and leaves the current set in place.
// The lock is held across the read so a concurrent mutation cannot be
// overwritten by an older snapshot.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		s.resetLocked(nil)
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		utils.Warnf("%v; starting with no favorites", &utils.MalformedStorageError{Key: s.key, Err: err})
		s.resetLocked(nil)
		return nil
	}
	s.resetLocked(ids)
	utils.Debugf("loaded %d favorites", len(s.ids))
	return nil
}

// resetLocked installs ids, dropping blanks and duplicates.
func (s *Store) resetLocked(ids []string) {
	s.ids = nil
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// Toggle adds id if absent and removes it if present, persists, and returns
// the new membership. On a persist failure the set is left unchanged.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := append([]string(nil), s.ids...)
	_, present := s.index[id]
	if present {
		s.removeLocked(id)
	} else {
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}

	if err := s.persistLocked(ctx); err != nil {
		s.restoreLocked(prev)
		return present, err
	}

	op := "add"
	if present {
		op = "remove"
	}
	s.metrics.FavoriteOp(op, len(s.ids))
	return !present, nil
}

// Remove deletes id if present. Removing an absent id writes nothing.
func (s *Store) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return nil
	}
	prev := append([]string(nil), s.ids...)
	s.removeLocked(id)
	if err := s.persistLocked(ctx); err != nil {
		s.restoreLocked(prev)
		return err
	}
	s.metrics.FavoriteOp("remove", len(s.ids))
	return nil
}

// Clear empties the set and persists. It reports whether anything was
// cleared; an already empty set is a no-op with no write.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		return false, nil
	}
	prev := append([]string(nil), s.ids...)
	s.ids = nil
	s.index = make(map[string]struct{})
	if err := s.persistLocked(ctx); err != nil {
		s.restoreLocked(prev)
		return false, err
	}
	s.metrics.FavoriteOp("clear", 0)
	return true, nil
}

// Contains reports whether id is a favorite.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// IDs returns a copy of the favorites in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ids...)
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store) removeLocked(id string) {
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

func (s *Store) restoreLocked(ids []string) {
	s.ids = ids
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.index[id] = struct{}{}
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(data))
}
