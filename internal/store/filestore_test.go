package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return st
}

func TestFileStoreAddSearchAssignsSequentialIDs(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	for i, keyword := range []string{"levis 501", "nike air", "carhartt"} {
		s := domain.Search{OwnerID: "u1", Keyword: keyword}
		require.NoError(t, st.AddSearch(ctx, &s))
		assert.Equal(t, int64(i+1), s.ID)
		assert.False(t, s.CreatedAt.IsZero())
	}

	searches, err := st.ListSearches(ctx, false)
	require.NoError(t, err)
	require.Len(t, searches, 3)
}

func TestFileStoreAddSearchReusesMaxAfterRemoval(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	for _, keyword := range []string{"a", "b", "c"} {
		s := domain.Search{OwnerID: "u1", Keyword: keyword}
		require.NoError(t, st.AddSearch(ctx, &s))
	}

	removed, err := st.RemoveSearch(ctx, 3, "u1")
	require.NoError(t, err)
	require.True(t, removed)

	s := domain.Search{OwnerID: "u1", Keyword: "d"}
	require.NoError(t, st.AddSearch(ctx, &s))
	assert.Equal(t, int64(3), s.ID)
}

func TestFileStoreRemoveSearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          int64
		owner       string
		wantRemoved bool
		wantLeft    int
	}{
		{name: "owner removes own search", id: 1, owner: "u1", wantRemoved: true, wantLeft: 1},
		{name: "non-owner is refused silently", id: 1, owner: "u2", wantRemoved: false, wantLeft: 2},
		{name: "unknown id", id: 99, owner: "u1", wantRemoved: false, wantLeft: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := newTestStore(t)
			ctx := context.Background()

			for _, s := range []domain.Search{
				{OwnerID: "u1", Keyword: "levis"},
				{OwnerID: "u2", Keyword: "nike"},
			} {
				require.NoError(t, st.AddSearch(ctx, &s))
			}

			removed, err := st.RemoveSearch(ctx, tt.id, tt.owner)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemoved, removed)

			searches, err := st.ListSearches(ctx, false)
			require.NoError(t, err)
			assert.Len(t, searches, tt.wantLeft)
		})
	}
}

func TestFileStoreGetSearchNotFound(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	_, err := st.GetSearch(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSearchNotFound)
}

func TestFileStoreUpdateSearch(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	s := domain.Search{OwnerID: "u1", Keyword: "levis", Enabled: true}
	require.NoError(t, st.AddSearch(ctx, &s))

	s.Enabled = false
	require.NoError(t, st.UpdateSearch(ctx, &s))

	got, err := st.GetSearch(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	missing := domain.Search{ID: 99}
	assert.ErrorIs(t, st.UpdateSearch(ctx, &missing), ErrSearchNotFound)
}

func TestFileStoreListSearchesEnabledOnly(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	for _, s := range []domain.Search{
		{OwnerID: "u1", Keyword: "on", Enabled: true},
		{OwnerID: "u1", Keyword: "off", Enabled: false},
	} {
		require.NoError(t, st.AddSearch(ctx, &s))
	}

	enabled, err := st.ListSearches(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].Keyword)
}

func TestFileStoreSettingsDefaultsWhenMissing(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	s, err := st.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, s.PollInterval())
	assert.Equal(t, 24*time.Hour, s.CacheTTL())
	assert.Equal(t, "fr", s.Language)
}

func TestFileStoreSaveSettingsRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSettings(ctx, domain.Settings{
		PollIntervalSeconds: 120,
		CacheTTLHours:       48,
		Language:            "en",
	}))

	got, err := st.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, got.PollIntervalSeconds)
	assert.Equal(t, 48, got.CacheTTLHours)
	assert.Equal(t, "en", got.Language)
}

func TestFileStoreUpdateSettingsPersists(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	updated, err := st.UpdateSettings(ctx, func(s *domain.Settings) {
		s.PollIntervalSeconds = 300
		s.NotificationChannel = "chan-1"
	})
	require.NoError(t, err)
	assert.Equal(t, 300, updated.PollIntervalSeconds)

	got, err := st.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, got.PollIntervalSeconds)
	assert.Equal(t, "chan-1", got.NotificationChannel)
}

func TestFileStoreMalformedFileFallsBackToEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "searches.json"), []byte("{not json"), 0o600))

	st, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	searches, err := st.ListSearches(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, searches)
}

func TestFileStoreCacheLifecycle(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	seen, err := st.IsCached(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, st.AddToCache(ctx, "item-1", time.Now()))

	seen, err = st.IsCached(ctx, "item-1")
	require.NoError(t, err)
	assert.True(t, seen)

	size, err := st.CacheSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestFileStoreEvictExpired(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.AddToCache(ctx, "old", time.Now().Add(-25*time.Hour)))
	require.NoError(t, st.AddToCache(ctx, "fresh", time.Now().Add(-23*time.Hour)))

	evicted, err := st.EvictExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	seen, err := st.IsCached(ctx, "old")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = st.IsCached(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)

	evicted, err = st.EvictExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, evicted)
}

func TestFileStoreReAddKeepsFirstSeenTime(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.AddToCache(ctx, "item-1", time.Now().Add(-25*time.Hour)))
	require.NoError(t, st.AddToCache(ctx, "item-1", time.Now()))

	// The re-add must not refresh the timestamp, so the entry still expires.
	evicted, err := st.EvictExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
}

func TestFileStoreUserPrefs(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	prefs, err := st.UserPrefs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, prefs.Language)

	require.NoError(t, st.SetUserPrefs(ctx, "u1", domain.UserPrefs{Language: "en"}))

	prefs, err = st.UserPrefs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "en", prefs.Language)
}

func TestFileStoreConcurrentAddSearch(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s := domain.Search{OwnerID: "u1", Keyword: "kw"}
			assert.NoError(t, st.AddSearch(ctx, &s))
		}()
	}
	wg.Wait()

	searches, err := st.ListSearches(ctx, false)
	require.NoError(t, err)
	require.Len(t, searches, n)

	ids := make(map[int64]bool, n)
	for _, s := range searches {
		assert.False(t, ids[s.ID], "duplicate id %d", s.ID)
		ids[s.ID] = true
	}
}

func TestFileStorePing(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}
