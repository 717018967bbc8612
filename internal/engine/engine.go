// Package engine orchestrates polling cycles: it walks the enabled saved
// searches, fetches the catalog through the shared rate limiter, filters
// already-seen listings, and triggers notifications for the new ones.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/dedup"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/metrics"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/notify"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/store"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/vinted"
	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

const (
	defaultSearchPause = 2 * time.Second
	defaultFetchLimit  = 20
)

// Engine runs one polling cycle at a time over all enabled searches.
type Engine struct {
	store      store.Store
	fetcher    vinted.Searcher
	cache      *dedup.Cache
	dispatcher *notify.Dispatcher
	stats      *Stats
	log        *slog.Logger

	searchPause time.Duration
	fetchLimit  int
	sleepFunc   func(ctx context.Context, d time.Duration) error
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithSearchPause sets the fixed pause between consecutive searches within a
// cycle. This throttle is deliberate and independent of the rate limiter.
func WithSearchPause(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.searchPause = d
	}
}

// WithFetchLimit caps how many listings one search fetch may return.
func WithFetchLimit(n int) EngineOption {
	return func(e *Engine) {
		e.fetchLimit = n
	}
}

// WithSleepFunc overrides the inter-search suspension for testing.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) {
		e.sleepFunc = f
	}
}

// NewEngine creates an Engine with injected dependencies.
func NewEngine(
	s store.Store,
	fetcher vinted.Searcher,
	cache *dedup.Cache,
	dispatcher *notify.Dispatcher,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		store:       s,
		fetcher:     fetcher,
		cache:       cache,
		dispatcher:  dispatcher,
		stats:       NewStats(),
		log:         slog.Default(),
		searchPause: defaultSearchPause,
		fetchLimit:  defaultFetchLimit,
		sleepFunc:   sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns the engine's counters.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// RunCycle executes one full pass: every enabled search in stored order,
// then cache eviction, then stats. A single search's failure is logged and
// the remaining searches still run; only context cancellation aborts the
// cycle.
func (e *Engine) RunCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	settings, err := e.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	searches, err := e.store.ListSearches(ctx, true)
	if err != nil {
		return fmt.Errorf("listing searches: %w", err)
	}
	e.log.Info("cycle starting", "enabled_searches", len(searches))

	for i := range searches {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s := &searches[i]
		if err := e.processSearch(ctx, s, settings); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.log.Error("search processing failed",
				"search_id", s.ID, "keyword", s.Keyword, "error", err)
			e.stats.searchFailed()
			metrics.SearchErrorsTotal.Inc()
		}

		// Spread load across searches even when the limiter would allow
		// back-to-back calls.
		if i < len(searches)-1 && e.searchPause > 0 {
			if err := e.sleepFunc(ctx, e.searchPause); err != nil {
				return err
			}
		}
	}

	if evicted, err := e.cache.EvictExpired(ctx, settings.CacheTTL()); err != nil {
		e.log.Error("cache eviction failed", "error", err)
	} else if evicted > 0 {
		e.log.Info("cache evicted", "entries", evicted)
	}

	e.stats.cycleDone(len(searches))
	metrics.CyclesTotal.Inc()
	e.log.Info("cycle finished", "duration", time.Since(start))
	return nil
}

func (e *Engine) processSearch(
	ctx context.Context,
	s *domain.Search,
	settings domain.Settings,
) error {
	listings, err := e.fetcher.Search(ctx, s.Criteria(), e.fetchLimit)
	if err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}

	target := e.buildTarget(ctx, s, settings)

	newCount := 0
	for i := range listings {
		l := &listings[i]

		known, err := e.cache.IsKnown(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("cache lookup for %s: %w", l.ID, err)
		}
		if known {
			continue
		}

		if err := e.cache.MarkSeen(ctx, l.ID, time.Now()); err != nil {
			return fmt.Errorf("caching %s: %w", l.ID, err)
		}

		newCount++
		e.stats.itemFound()
		metrics.ItemsFoundTotal.Inc()

		sent := e.dispatcher.Dispatch(ctx, target, *l)
		e.stats.notificationsDelivered(sent)
	}

	if newCount > 0 {
		e.log.Info("new listings found",
			"search_id", s.ID, "keyword", s.Keyword, "count", newCount)
	}

	now := time.Now().UTC()
	s.LastRunAt = &now
	if err := e.store.UpdateSearch(ctx, s); err != nil {
		// The run itself succeeded; losing the last-run marker is not fatal.
		e.log.Warn("updating last-run time failed", "search_id", s.ID, "error", err)
	}
	return nil
}

// buildTarget resolves where and how notifications for this search go: DM
// and/or the search's home channel (falling back to the default channel),
// rendered in the owner's preferred language.
func (e *Engine) buildTarget(
	ctx context.Context,
	s *domain.Search,
	settings domain.Settings,
) notify.Target {
	lang := settings.Language
	if prefs, err := e.store.UserPrefs(ctx, s.OwnerID); err == nil && prefs.Language != "" {
		lang = prefs.Language
	}

	channelID := s.ChannelID
	if channelID == "" {
		channelID = settings.NotificationChannel
	}

	return notify.Target{
		UserID:    s.OwnerID,
		DM:        s.DMEnabled,
		ChannelID: channelID,
		Lang:      lang,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
