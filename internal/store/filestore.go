package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// Resource file names under the data directory. The file holding the search
// collection is the sole source of truth for the next search id; there is no
// separate counter.
const (
	settingsFile = "config.json"
	searchesFile = "searches.json"
	cacheFile    = "results_cache.json"
	usersFile    = "users.json"
)

// FileStore persists each resource as one JSON file with whole-file atomic
// replacement. One mutex per resource serializes load-modify-save sequences;
// the four resources never block each other.
type FileStore struct {
	dir string
	log *slog.Logger

	settingsMu sync.Mutex
	searchesMu sync.Mutex
	cacheMu    sync.Mutex
	usersMu    sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a store
// over it.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{dir: dir, log: log}, nil
}

// readJSON unmarshals the named resource file into out. A missing or
// malformed file leaves out at its zero value: lossy but available.
func (f *FileStore) readJSON(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		f.log.Error("malformed resource file, using empty default",
			"file", name, "error", err)
	}
	return nil
}

// writeJSON durably replaces the named resource file. The value is written
// to a temp file in the same directory, synced, then renamed over the
// target so readers never observe a partial write.
func (f *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// LoadSettings returns the persisted settings with defaults applied.
func (f *FileStore) LoadSettings(_ context.Context) (domain.Settings, error) {
	f.settingsMu.Lock()
	defer f.settingsMu.Unlock()
	return f.loadSettingsLocked()
}

func (f *FileStore) loadSettingsLocked() (domain.Settings, error) {
	var s domain.Settings
	if err := f.readJSON(settingsFile, &s); err != nil {
		return domain.Settings{}, err
	}
	return s.WithDefaults(), nil
}

// SaveSettings overwrites the settings resource.
func (f *FileStore) SaveSettings(_ context.Context, s domain.Settings) error {
	f.settingsMu.Lock()
	defer f.settingsMu.Unlock()
	return f.writeJSON(settingsFile, s)
}

// UpdateSettings applies fn to the current settings and persists the result
// under the settings lock.
func (f *FileStore) UpdateSettings(
	_ context.Context,
	fn func(*domain.Settings),
) (domain.Settings, error) {
	f.settingsMu.Lock()
	defer f.settingsMu.Unlock()

	s, err := f.loadSettingsLocked()
	if err != nil {
		return domain.Settings{}, err
	}
	fn(&s)
	if err := f.writeJSON(settingsFile, s); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

func (f *FileStore) loadSearchesLocked() ([]domain.Search, error) {
	var searches []domain.Search
	if err := f.readJSON(searchesFile, &searches); err != nil {
		return nil, err
	}
	return searches, nil
}

// AddSearch assigns the next id (max existing + 1) and appends the search.
// The whole assign-append-write sequence holds the searches lock, so two
// concurrent adds always get distinct ids.
func (f *FileStore) AddSearch(_ context.Context, s *domain.Search) error {
	f.searchesMu.Lock()
	defer f.searchesMu.Unlock()

	searches, err := f.loadSearchesLocked()
	if err != nil {
		return err
	}

	var maxID int64
	for i := range searches {
		if searches[i].ID > maxID {
			maxID = searches[i].ID
		}
	}
	s.ID = maxID + 1
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	searches = append(searches, *s)
	return f.writeJSON(searchesFile, searches)
}

// RemoveSearch deletes the search only when both the id matches and ownerID
// is the owner. A missing id or a non-owner caller returns (false, nil),
// not an error.
func (f *FileStore) RemoveSearch(_ context.Context, id int64, ownerID string) (bool, error) {
	f.searchesMu.Lock()
	defer f.searchesMu.Unlock()

	searches, err := f.loadSearchesLocked()
	if err != nil {
		return false, err
	}

	kept := searches[:0]
	for i := range searches {
		if searches[i].ID == id && searches[i].OwnerID == ownerID {
			continue
		}
		kept = append(kept, searches[i])
	}
	if len(kept) == len(searches) {
		return false, nil
	}
	if err := f.writeJSON(searchesFile, kept); err != nil {
		return false, err
	}
	return true, nil
}

// GetSearch returns the search with the given id, or ErrSearchNotFound.
func (f *FileStore) GetSearch(_ context.Context, id int64) (*domain.Search, error) {
	f.searchesMu.Lock()
	defer f.searchesMu.Unlock()

	searches, err := f.loadSearchesLocked()
	if err != nil {
		return nil, err
	}
	for i := range searches {
		if searches[i].ID == id {
			s := searches[i]
			return &s, nil
		}
	}
	return nil, ErrSearchNotFound
}

// ListSearches returns all searches in stored order, optionally filtered to
// enabled ones.
func (f *FileStore) ListSearches(_ context.Context, enabledOnly bool) ([]domain.Search, error) {
	f.searchesMu.Lock()
	defer f.searchesMu.Unlock()

	searches, err := f.loadSearchesLocked()
	if err != nil {
		return nil, err
	}
	if !enabledOnly {
		return searches, nil
	}

	enabled := make([]domain.Search, 0, len(searches))
	for i := range searches {
		if searches[i].Enabled {
			enabled = append(enabled, searches[i])
		}
	}
	return enabled, nil
}

// UserSearches returns the searches owned by ownerID in stored order.
func (f *FileStore) UserSearches(_ context.Context, ownerID string) ([]domain.Search, error) {
	f.searchesMu.Lock()
	defer f.searchesMu.Unlock()

	searches, err := f.loadSearchesLocked()
	if err != nil {
		return nil, err
	}

	var owned []domain.Search
	for i := range searches {
		if searches[i].OwnerID == ownerID {
			owned = append(owned, searches[i])
		}
	}
	return owned, nil
}

// UpdateSearch replaces the stored search with the same id.
func (f *FileStore) UpdateSearch(_ context.Context, s *domain.Search) error {
	f.searchesMu.Lock()
	defer f.searchesMu.Unlock()

	searches, err := f.loadSearchesLocked()
	if err != nil {
		return err
	}
	for i := range searches {
		if searches[i].ID == s.ID {
			searches[i] = *s
			return f.writeJSON(searchesFile, searches)
		}
	}
	return ErrSearchNotFound
}

func (f *FileStore) loadCacheLocked() (map[string]int64, error) {
	cache := map[string]int64{}
	if err := f.readJSON(cacheFile, &cache); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = map[string]int64{}
	}
	return cache, nil
}

// IsCached reports whether itemID has been seen before.
func (f *FileStore) IsCached(_ context.Context, itemID string) (bool, error) {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	cache, err := f.loadCacheLocked()
	if err != nil {
		return false, err
	}
	_, ok := cache[itemID]
	return ok, nil
}

// AddToCache records itemID with its first-seen time. Re-adding a known id
// keeps the original timestamp.
func (f *FileStore) AddToCache(_ context.Context, itemID string, seenAt time.Time) error {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	cache, err := f.loadCacheLocked()
	if err != nil {
		return err
	}
	if _, ok := cache[itemID]; ok {
		return nil
	}
	cache[itemID] = seenAt.Unix()
	return f.writeJSON(cacheFile, cache)
}

// EvictExpired removes entries first seen more than maxAge ago and returns
// how many were dropped. The file is rewritten only when something expired.
func (f *FileStore) EvictExpired(_ context.Context, maxAge time.Duration) (int, error) {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	cache, err := f.loadCacheLocked()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge).Unix()
	evicted := 0
	for id, seen := range cache {
		if seen < cutoff {
			delete(cache, id)
			evicted++
		}
	}
	if evicted == 0 {
		return 0, nil
	}
	if err := f.writeJSON(cacheFile, cache); err != nil {
		return 0, err
	}
	return evicted, nil
}

// CacheSize returns the number of cached listing ids.
func (f *FileStore) CacheSize(_ context.Context) (int, error) {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	cache, err := f.loadCacheLocked()
	if err != nil {
		return 0, err
	}
	return len(cache), nil
}

func (f *FileStore) loadUsersLocked() (map[string]domain.UserPrefs, error) {
	users := map[string]domain.UserPrefs{}
	if err := f.readJSON(usersFile, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = map[string]domain.UserPrefs{}
	}
	return users, nil
}

// UserPrefs returns the stored preferences for userID, or the zero value.
func (f *FileStore) UserPrefs(_ context.Context, userID string) (domain.UserPrefs, error) {
	f.usersMu.Lock()
	defer f.usersMu.Unlock()

	users, err := f.loadUsersLocked()
	if err != nil {
		return domain.UserPrefs{}, err
	}
	return users[userID], nil
}

// SetUserPrefs stores the preferences for userID.
func (f *FileStore) SetUserPrefs(_ context.Context, userID string, p domain.UserPrefs) error {
	f.usersMu.Lock()
	defer f.usersMu.Unlock()

	users, err := f.loadUsersLocked()
	if err != nil {
		return err
	}
	users[userID] = p
	return f.writeJSON(usersFile, users)
}

// Ping verifies the data directory is still reachable and writable metadata.
func (f *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", f.dir)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
