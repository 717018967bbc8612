package vinted

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractFeedGridItems(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<div class="feed-grid__item">
		<a href="/items/123456-levis"><div class="item-title">Levis 501</div>
		<div class="item-price">15,50 €</div>
		<img src="https://img.example/a.jpg"></a>
	</div>`)

	listings := Extract(doc, domain.Criteria{SearchID: 7, Brand: "Levis", Size: "M"})
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "123456", l.ID)
	assert.Equal(t, "Levis 501", l.Title)
	assert.Equal(t, 15.5, l.Price)
	assert.Equal(t, "15,50 €", l.PriceText)
	assert.Equal(t, "https://www.vinted.fr/items/123456-levis", l.URL)
	assert.Equal(t, "https://img.example/a.jpg", l.ImageURL)
	assert.Equal(t, "Levis", l.Brand)
	assert.Equal(t, "M", l.Size)
	assert.Equal(t, int64(7), l.SearchID)
}

func TestExtractDataTestIDMarkup(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<div data-testid="item-box">
		<a href="https://www.vinted.fr/items/99-t-shirt">
		<div data-testid="item-title">T-shirt</div>
		<div data-testid="item-price">5 €</div></a>
	</div>`)

	listings := Extract(doc, domain.Criteria{})
	require.Len(t, listings, 1)
	assert.Equal(t, "99", listings[0].ID)
	assert.Equal(t, 5.0, listings[0].Price)
}

func TestExtractSkipsIncompleteItems(t *testing.T) {
	t.Parallel()

	// No price and no link: both items must be dropped.
	doc := parseDoc(t, `
	<div class="feed-grid__item"><a href="/items/1-x"><div class="item-title">No price</div></a></div>
	<div class="feed-grid__item"><div class="item-title">No link</div><div class="item-price">3 €</div></div>`)

	assert.Empty(t, Extract(doc, domain.Criteria{}))
}

func TestExtractEmptyDocument(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Extract(parseDoc(t, "<html><body></body></html>"), domain.Criteria{}))
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want float64
	}{
		{"15,50 €", 15.5},
		{"5 €", 5},
		{"1 200,00 €", 1200},
		{"40.00", 40},
		{"gratuit", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePrice(tt.text), "price %q", tt.text)
	}
}

func TestListingID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "123456789",
		ListingID("https://www.vinted.fr/items/123456789-levis-501"))
	assert.Equal(t, "123456789",
		ListingID("https://www.vinted.fr/items/123456789"))
	assert.Equal(t, "42",
		ListingID("https://www.vinted.fr/items/42?referrer=catalog"))
	assert.Equal(t, "42",
		ListingID("https://www.vinted.fr/items/42#photos"))

	// No numeric segment: a stable 12-char hash of the full URL.
	id := ListingID("https://www.vinted.fr/items/levis-501")
	assert.Len(t, id, 12)
	assert.Equal(t, id, ListingID("https://www.vinted.fr/items/levis-501"))
	assert.NotEqual(t, id, ListingID("https://www.vinted.fr/items/nike-air"))
}

func TestListingIDStableAcrossSlugChange(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		ListingID("https://www.vinted.fr/items/777/levis"),
		ListingID("https://www.vinted.fr/items/777/levis-501-bleu"))
}
