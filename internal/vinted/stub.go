package vinted

import (
	"context"
	"fmt"
	"time"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// StubSearcher implements Searcher with generated listings, for demo runs
// and local development without touching the real catalog.
type StubSearcher struct {
	// NowFunc overrides the time source; listing ids embed the timestamp so
	// each run produces fresh listings.
	NowFunc func() time.Time
}

// Search returns up to five generated listings matching the criteria shape.
func (s *StubSearcher) Search(
	_ context.Context,
	c domain.Criteria,
	limit int,
) ([]domain.Listing, error) {
	now := time.Now
	if s.NowFunc != nil {
		now = s.NowFunc
	}
	ts := now().UTC()

	n := min(limit, 5)
	listings := make([]domain.Listing, 0, n)
	keyword := c.Keyword
	if keyword == "" {
		keyword = "article"
	}

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("demo-%d-%d-%d", c.SearchID, ts.Unix(), i)
		price := 15.0 + float64(i)*10
		rating := 4.5
		listings = append(listings, domain.Listing{
			ID:           id,
			Title:        fmt.Sprintf("%s - Article démo %d", keyword, i+1),
			Price:        price,
			PriceText:    fmt.Sprintf("%.0f €", price),
			URL:          siteOrigin + "/items/" + id,
			Brand:        c.Brand,
			Size:         c.Size,
			Condition:    "Très bon état",
			SellerRating: &rating,
			PostedAt:     ts,
			SearchID:     c.SearchID,
		})
	}
	return listings, nil
}

var _ Searcher = (*StubSearcher)(nil)
