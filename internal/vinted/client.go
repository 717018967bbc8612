// Package vinted provides the catalog fetch collaborator: a rate-limited
// HTTP client that turns search criteria into normalized listings.
package vinted

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/metrics"
	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

const defaultCooldown = 60 * time.Second

// Searcher defines the fetch collaborator consumed by the polling engine.
// Implementations return a finite slice of listings and report an empty
// result, not an error, for "no results", "blocked" and malformed remote
// responses.
type Searcher interface {
	Search(ctx context.Context, c domain.Criteria, limit int) ([]domain.Listing, error)
}

// Client implements Searcher against the Vinted catalog HTML.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *Limiter
	extract   ExtractFunc
	cooldown  time.Duration
	log       *slog.Logger
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLimiter injects the shared rate limiter. When set, every Search call
// goes through Acquire first.
func WithLimiter(l *Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithExtractFunc swaps the HTML extraction function.
func WithExtractFunc(fn ExtractFunc) ClientOption {
	return func(c *Client) {
		c.extract = fn
	}
}

// WithCooldown sets the backoff before the single retry after a remote
// throttle response.
func WithCooldown(d time.Duration) ClientOption {
	return func(c *Client) {
		c.cooldown = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithCooldownSleep overrides the cooldown suspension for testing.
func WithCooldownSleep(f func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleepFunc = f
	}
}

// NewClient creates a catalog client rooted at baseURL, identifying itself
// with userAgent.
func NewClient(baseURL, userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		extract:   Extract,
		cooldown:  defaultCooldown,
		log:       slog.Default(),
		sleepFunc: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search fetches listings matching c, at most limit of them. Remote
// throttling (429) or a transport failure triggers one retry after the
// cooldown; a blocked (403) or otherwise failed response yields an empty
// result. The returned error is non-nil only when the context ends.
func (c *Client) Search(
	ctx context.Context,
	criteria domain.Criteria,
	limit int,
) ([]domain.Listing, error) {
	// Bounded retry: the first attempt plus at most one retry after a
	// transient remote failure.
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx); err != nil {
				return nil, err
			}
		}

		listings, retryable, err := c.attempt(ctx, criteria, limit)
		if err != nil {
			return nil, err
		}
		if !retryable || attempt >= 1 {
			return listings, nil
		}

		c.log.Warn("remote throttled, backing off before retry",
			"search_id", criteria.SearchID, "cooldown", c.cooldown)
		if err := c.sleepFunc(ctx, c.cooldown); err != nil {
			return nil, err
		}
	}
}

// attempt performs one HTTP round trip. retryable reports whether the caller
// may try again (remote-transient failure); err is non-nil only for context
// cancellation.
func (c *Client) attempt(
	ctx context.Context,
	criteria domain.Criteria,
	limit int,
) (listings []domain.Listing, retryable bool, err error) {
	u := c.buildSearchURL(criteria)
	c.log.Debug("fetching catalog page", "url", u, "search_id", criteria.SearchID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("creating catalog request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	metrics.FetchRequestsTotal.Inc()

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.log.Error("catalog request failed", "error", err)
		metrics.FetchErrorsTotal.Inc()
		return nil, true, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.FetchErrorsTotal.Inc()
		return nil, true, nil
	case resp.StatusCode == http.StatusForbidden:
		// Blocked by the remote side. Terminal for this attempt.
		c.log.Error("catalog access refused", "status", resp.StatusCode)
		metrics.FetchErrorsTotal.Inc()
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		c.log.Error("unexpected catalog status", "status", resp.StatusCode)
		metrics.FetchErrorsTotal.Inc()
		return nil, false, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.log.Error("parsing catalog HTML failed", "error", err)
		return nil, false, nil
	}

	listings = c.extract(doc, criteria)
	if len(listings) > limit {
		listings = listings[:limit]
	}
	c.log.Debug("catalog page extracted",
		"search_id", criteria.SearchID, "listings", len(listings))
	return listings, false, nil
}

// buildSearchURL renders criteria as catalog query parameters.
func (c *Client) buildSearchURL(criteria domain.Criteria) string {
	params := url.Values{}
	if criteria.Keyword != "" {
		params.Set("search_text", criteria.Keyword)
	}
	if criteria.MinPrice != nil {
		params.Set("price_from", strconv.Itoa(*criteria.MinPrice))
	}
	if criteria.MaxPrice != nil {
		params.Set("price_to", strconv.Itoa(*criteria.MaxPrice))
	}
	if criteria.Size != "" {
		params.Set("size_ids[]", criteria.Size)
	}
	if criteria.Brand != "" {
		params.Set("brand_ids[]", criteria.Brand)
	}
	if criteria.Condition != "" {
		params.Set("status_ids[]", criteria.Condition)
	}

	if len(params) == 0 {
		return c.baseURL
	}
	return c.baseURL + "?" + params.Encode()
}
