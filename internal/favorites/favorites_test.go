package favorites_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipefinder/internal/favorites"
	"recipefinder/internal/storage"
)

// recordingKV is an in-memory KV that counts writes and can be made to fail.
type recordingKV struct {
	mu      sync.Mutex
	data    map[string]string
	writes  int
	failSet error
	failGet error
}

func newRecordingKV() *recordingKV {
	return &recordingKV{data: make(map[string]string)}
}

func (r *recordingKV) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return "", false, r.failGet
	}
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *recordingKV) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	r.writes++
	r.data[key] = value
	return nil
}

func loaded(t *testing.T, kv favorites.KV) *favorites.Store {
	t.Helper()
	s := favorites.New(kv)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestToggleTwiceRestoresMembership(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)
	ctx := context.Background()

	on, err := s.Toggle(ctx, "52772")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.Contains("52772"))

	on, err = s.Toggle(ctx, "52772")
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, s.Contains("52772"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 2, kv.writes, "every toggle persists")
	assert.Equal(t, "[]", kv.data[storage.KeyFavorites])
}

func TestTogglePersistsBeforeReturning(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)

	_, err := s.Toggle(context.Background(), "1")
	require.NoError(t, err)

	assert.JSONEq(t, `["1"]`, kv.data[storage.KeyFavorites])
}

func TestRoundTripThroughSQLite(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	s := loaded(t, db)
	for _, id := range []string{"3", "1", "2"} {
		_, err := s.Toggle(ctx, id)
		require.NoError(t, err)
	}

	reloaded := loaded(t, db)
	got := reloaded.IDs()
	want := s.IDs()
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestIDsKeepInsertionOrder(t *testing.T) {
	s := loaded(t, newRecordingKV())
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		_, _ = s.Toggle(ctx, id)
	}
	_, _ = s.Toggle(ctx, "a")
	_, _ = s.Toggle(ctx, "a")

	assert.Equal(t, []string{"b", "c", "a"}, s.IDs())
}

func TestLoadMalformedYieldsEmpty(t *testing.T) {
	kv := newRecordingKV()
	kv.data[storage.KeyFavorites] = `{not json`

	s := loaded(t, kv)

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, kv.writes, "loading never writes")
}

func TestLoadAbsentYieldsEmpty(t *testing.T) {
	s := loaded(t, newRecordingKV())
	assert.Equal(t, 0, s.Len())
}

func TestLoadDropsDuplicatesAndBlanks(t *testing.T) {
	kv := newRecordingKV()
	kv.data[storage.KeyFavorites] = `["1"," ","2","1",""]`

	s := loaded(t, kv)

	assert.Equal(t, []string{"1", "2"}, s.IDs())
}

func TestLoadReadFailureReturnsError(t *testing.T) {
	kv := newRecordingKV()
	kv.failGet = errors.New("disk gone")

	s := favorites.New(kv)
	err := s.Load(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestReloadFailureKeepsSavedFavorites(t *testing.T) {
	kv := newRecordingKV()
	kv.data["favorites"] = `["1","2","3"]`
	s := loaded(t, kv)

	kv.failGet = errors.New("database is locked")
	require.Error(t, s.Load(context.Background()))
	assert.Equal(t, []string{"1", "2", "3"}, s.IDs())

	kv.failGet = nil
	added, err := s.Toggle(context.Background(), "4")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, `["1","2","3","4"]`, kv.data["favorites"])
}

func TestReloadPicksUpExternalWrite(t *testing.T) {
	kv := newRecordingKV()
	kv.data["favorites"] = `["1"]`
	s := loaded(t, kv)

	kv.data["favorites"] = `["1","9"]`
	require.NoError(t, s.Load(context.Background()))

	assert.True(t, s.Contains("9"))
	assert.Equal(t, 2, s.Len())
}

func TestConcurrentReloadAndToggle(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Load(ctx)
		}()
		go func(i int) {
			defer wg.Done()
			_, _ = s.Toggle(ctx, fmt.Sprintf("id-%d", i))
		}(i)
	}
	wg.Wait()

	// Every toggle persisted, so a final reload must agree with memory.
	want := s.IDs()
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, want, s.IDs())
	assert.Equal(t, 20, s.Len())
}

func TestClearEmptyIsNoopWithoutWrite(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)

	cleared, err := s.Clear(context.Background())

	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Equal(t, 0, kv.writes)
}

func TestClearPersistsEmptyList(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)
	ctx := context.Background()
	_, _ = s.Toggle(ctx, "1")
	_, _ = s.Toggle(ctx, "2")

	cleared, err := s.Clear(ctx)

	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "[]", kv.data[storage.KeyFavorites])
}

func TestPersistFailureRollsBack(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)
	ctx := context.Background()
	_, _ = s.Toggle(ctx, "keep")

	kv.failSet = errors.New("read-only")

	on, err := s.Toggle(ctx, "new")
	assert.Error(t, err)
	assert.False(t, on)
	assert.False(t, s.Contains("new"))

	_, err = s.Toggle(ctx, "keep")
	assert.Error(t, err)
	assert.True(t, s.Contains("keep"))

	cleared, err := s.Clear(ctx)
	assert.Error(t, err)
	assert.False(t, cleared)
	assert.Equal(t, []string{"keep"}, s.IDs())
}

func TestRemove(t *testing.T) {
	kv := newRecordingKV()
	s := loaded(t, kv)
	ctx := context.Background()
	_, _ = s.Toggle(ctx, "1")
	writes := kv.writes

	require.NoError(t, s.Remove(ctx, "missing"))
	assert.Equal(t, writes, kv.writes, "removing an absent id writes nothing")

	require.NoError(t, s.Remove(ctx, "1"))
	assert.False(t, s.Contains("1"))
	assert.Equal(t, writes+1, kv.writes)
}

func TestEmptyIDRejected(t *testing.T) {
	s := loaded(t, newRecordingKV())

	_, err := s.Toggle(context.Background(), "  ")
	assert.ErrorIs(t, err, favorites.ErrEmptyID)
	assert.ErrorIs(t, s.Remove(context.Background(), ""), favorites.ErrEmptyID)
}

func TestCustomKey(t *testing.T) {
	kv := newRecordingKV()
	s := favorites.New(kv, favorites.WithKey("rf_favs"))
	require.NoError(t, s.Load(context.Background()))

	_, _ = s.Toggle(context.Background(), "9")

	assert.JSONEq(t, `["9"]`, kv.data["rf_favs"])
}
