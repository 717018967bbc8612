// Package store defines the datastore abstraction for the Vinted watch bot.
// All business logic depends on the Store interface, never on concrete
// implementations.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// ErrSearchNotFound is returned when a search id does not exist.
var ErrSearchNotFound = errors.New("search not found")

// Store defines all data access operations over the four durable resources:
// settings, searches, the seen-listing cache, and user preferences. Each
// resource is independently serialized; every method runs its whole
// read-modify-write sequence inside that resource's critical section.
type Store interface {
	// Settings
	LoadSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) error
	// UpdateSettings applies fn to the current settings and persists the
	// result atomically with respect to concurrent settings access.
	UpdateSettings(ctx context.Context, fn func(*domain.Settings)) (domain.Settings, error)

	// Searches
	AddSearch(ctx context.Context, s *domain.Search) error
	RemoveSearch(ctx context.Context, id int64, ownerID string) (bool, error)
	GetSearch(ctx context.Context, id int64) (*domain.Search, error)
	ListSearches(ctx context.Context, enabledOnly bool) ([]domain.Search, error)
	UserSearches(ctx context.Context, ownerID string) ([]domain.Search, error)
	UpdateSearch(ctx context.Context, s *domain.Search) error

	// Seen-listing cache
	IsCached(ctx context.Context, itemID string) (bool, error)
	AddToCache(ctx context.Context, itemID string, seenAt time.Time) error
	EvictExpired(ctx context.Context, maxAge time.Duration) (int, error)
	CacheSize(ctx context.Context) (int, error)

	// User preferences
	UserPrefs(ctx context.Context, userID string) (domain.UserPrefs, error)
	SetUserPrefs(ctx context.Context, userID string, p domain.UserPrefs) error

	// Health
	Ping(ctx context.Context) error
}
