// Package domain defines the core business types for the Vinted watch bot.
package domain

import "time"

// Search is a saved, user-owned query against the Vinted catalog. The ID is
// assigned by the store on creation and never changes afterwards.
type Search struct {
	ID        int64  `json:"id"`
	OwnerID   string `json:"user_id"`
	GuildID   string `json:"guild_id,omitempty"`
	ChannelID string `json:"guild_channel_id,omitempty"`
	DMEnabled bool   `json:"dm_notifications"`

	Keyword   string `json:"keyword"`
	MinPrice  *int   `json:"min_price,omitempty"`
	MaxPrice  *int   `json:"max_price,omitempty"`
	Size      string `json:"size,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Condition string `json:"condition,omitempty"`
	Location  string `json:"location,omitempty"`

	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"date_created"`
	LastRunAt *time.Time `json:"last_run,omitempty"`
}

// Criteria returns the fetch criteria derived from the search's filters.
func (s *Search) Criteria() Criteria {
	return Criteria{
		Keyword:   s.Keyword,
		MinPrice:  s.MinPrice,
		MaxPrice:  s.MaxPrice,
		Size:      s.Size,
		Brand:     s.Brand,
		Condition: s.Condition,
		Location:  s.Location,
		SearchID:  s.ID,
	}
}

// Criteria is the query handed to the fetch collaborator.
type Criteria struct {
	Keyword   string
	MinPrice  *int
	MaxPrice  *int
	Size      string
	Brand     string
	Condition string
	Location  string
	SearchID  int64
}

// Listing is one normalized catalog result. It is immutable once produced;
// only its ID and first-seen time are ever persisted.
type Listing struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	PriceText    string    `json:"price_text"`
	URL          string    `json:"url"`
	ImageURL     string    `json:"image_url,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Size         string    `json:"size,omitempty"`
	Condition    string    `json:"condition,omitempty"`
	SellerRating *float64  `json:"seller_reputation,omitempty"`
	PostedAt     time.Time `json:"date_posted"`
	SearchID     int64     `json:"search_id"`
}

// Settings holds the mutable runtime configuration persisted in the store's
// config resource.
type Settings struct {
	PollIntervalSeconds int    `json:"scraping_interval"`
	CacheTTLHours       int    `json:"cache_expiry_hours"`
	NotificationChannel string `json:"notification_channel_id,omitempty"`
	Language            string `json:"language"`
}

// PollInterval returns the polling interval as a duration.
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// CacheTTL returns the dedup cache expiry as a duration.
func (s Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLHours) * time.Hour
}

// Defaults applied to empty settings fields on load.
const (
	DefaultPollIntervalSeconds = 90
	DefaultCacheTTLHours       = 24
	DefaultLanguage            = "fr"
)

// WithDefaults returns a copy of s with zero fields replaced by defaults.
func (s Settings) WithDefaults() Settings {
	if s.PollIntervalSeconds == 0 {
		s.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if s.CacheTTLHours == 0 {
		s.CacheTTLHours = DefaultCacheTTLHours
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	return s
}

// UserPrefs holds per-user preferences keyed by owner id in the users
// resource.
type UserPrefs struct {
	Language string `json:"language,omitempty"`
}
