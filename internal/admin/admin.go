// Package admin exposes the synchronous operations behind the bot's
// commands: managing saved searches and runtime settings. The chat command
// layer itself lives outside this module; it calls these contracts and
// renders whatever they return.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/engine"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/store"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/vinted"
	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// testFetchLimit caps on-demand test fetches.
const testFetchLimit = 3

// Validation errors surfaced to the command layer.
var (
	ErrKeywordRequired  = errors.New("keyword is required")
	ErrOwnerRequired    = errors.New("owner id is required")
	ErrIntervalTooShort = errors.New("polling interval below minimum")
)

// Service implements the admin operations.
type Service struct {
	store       store.Store
	fetcher     vinted.Searcher
	stats       *engine.Stats
	minInterval time.Duration
	log         *slog.Logger
}

// NewService creates the admin service. minInterval is the floor enforced on
// SetPollInterval regardless of what callers request.
func NewService(
	st store.Store,
	fetcher vinted.Searcher,
	stats *engine.Stats,
	minInterval time.Duration,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:       st,
		fetcher:     fetcher,
		stats:       stats,
		minInterval: minInterval,
		log:         log,
	}
}

// AddSearch validates and stores a new search, returning it with its
// assigned id. New searches start enabled.
func (s *Service) AddSearch(ctx context.Context, search domain.Search) (*domain.Search, error) {
	if search.Keyword == "" {
		return nil, ErrKeywordRequired
	}
	if search.OwnerID == "" {
		return nil, ErrOwnerRequired
	}

	search.Enabled = true
	if err := s.store.AddSearch(ctx, &search); err != nil {
		return nil, fmt.Errorf("adding search: %w", err)
	}

	s.log.Info("search added",
		"search_id", search.ID, "owner", search.OwnerID, "keyword", search.Keyword)
	return &search, nil
}

// RemoveSearch deletes the search if it exists and owner owns it. The false
// return covers both "no such id" and "not yours"; the command layer shows
// the same message for either.
func (s *Service) RemoveSearch(ctx context.Context, id int64, ownerID string) (bool, error) {
	removed, err := s.store.RemoveSearch(ctx, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("removing search: %w", err)
	}
	if removed {
		s.log.Info("search removed", "search_id", id, "owner", ownerID)
	}
	return removed, nil
}

// UserSearches lists the caller's saved searches.
func (s *Service) UserSearches(ctx context.Context, ownerID string) ([]domain.Search, error) {
	return s.store.UserSearches(ctx, ownerID)
}

// SetEnabled toggles a search on or off; only the owner may do it.
func (s *Service) SetEnabled(ctx context.Context, id int64, ownerID string, enabled bool) error {
	search, err := s.store.GetSearch(ctx, id)
	if err != nil {
		return err
	}
	if search.OwnerID != ownerID {
		return store.ErrSearchNotFound
	}
	search.Enabled = enabled
	return s.store.UpdateSearch(ctx, search)
}

// TestSearch runs one on-demand fetch for the caller's search, capped at
// three results. It never touches the seen-listing cache, so a later cycle
// still notifies for anything it returned.
func (s *Service) TestSearch(ctx context.Context, id int64, ownerID string) ([]domain.Listing, error) {
	search, err := s.store.GetSearch(ctx, id)
	if err != nil {
		return nil, err
	}
	if search.OwnerID != ownerID {
		return nil, store.ErrSearchNotFound
	}

	listings, err := s.fetcher.Search(ctx, search.Criteria(), testFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("test fetch: %w", err)
	}
	if len(listings) > testFetchLimit {
		listings = listings[:testFetchLimit]
	}
	return listings, nil
}

// SetPollInterval persists a new polling interval. Requests below the
// configured floor are rejected here, not left to callers.
func (s *Service) SetPollInterval(ctx context.Context, interval time.Duration) error {
	if interval < s.minInterval {
		return fmt.Errorf("%w: minimum is %s", ErrIntervalTooShort, s.minInterval)
	}

	_, err := s.store.UpdateSettings(ctx, func(set *domain.Settings) {
		set.PollIntervalSeconds = int(interval / time.Second)
	})
	if err != nil {
		return fmt.Errorf("saving interval: %w", err)
	}
	s.log.Info("polling interval updated", "interval", interval)
	return nil
}

// SetNotificationChannel persists the default notification channel.
func (s *Service) SetNotificationChannel(ctx context.Context, channelID string) error {
	_, err := s.store.UpdateSettings(ctx, func(set *domain.Settings) {
		set.NotificationChannel = channelID
	})
	if err != nil {
		return fmt.Errorf("saving notification channel: %w", err)
	}
	s.log.Info("notification channel updated", "channel", channelID)
	return nil
}

// SetUserLanguage persists the caller's rendering language preference.
func (s *Service) SetUserLanguage(ctx context.Context, userID, lang string) error {
	prefs, err := s.store.UserPrefs(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}
	prefs.Language = lang
	if err := s.store.SetUserPrefs(ctx, userID, prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// Stats returns the current in-memory counters.
func (s *Service) Stats() engine.Snapshot {
	return s.stats.Snapshot()
}
