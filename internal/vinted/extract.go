package vinted

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

const siteOrigin = "https://www.vinted.fr"

// ExtractFunc turns a fetched catalog document into listing records. It is a
// pure function so the markup-dependent part of fetching stays swappable;
// selector breakage yields an empty slice, never an error.
type ExtractFunc func(doc *goquery.Document, c domain.Criteria) []domain.Listing

// Extract is the default extractor for the catalog's feed markup.
func Extract(doc *goquery.Document, c domain.Criteria) []domain.Listing {
	var listings []domain.Listing

	doc.Find(`.feed-grid__item, .item-box, [data-testid="item-box"]`).
		Each(func(_ int, sel *goquery.Selection) {
			l, ok := extractItem(sel, c)
			if ok {
				listings = append(listings, l)
			}
		})

	return listings
}

func extractItem(sel *goquery.Selection, c domain.Criteria) (domain.Listing, bool) {
	title := strings.TrimSpace(sel.Find(`.item-title, [data-testid="item-title"]`).First().Text())
	priceText := strings.TrimSpace(sel.Find(`.item-price, [data-testid="item-price"]`).First().Text())
	href, _ := sel.Find(`a[href*="/items/"]`).First().Attr("href")

	if title == "" || priceText == "" || href == "" {
		return domain.Listing{}, false
	}

	if !strings.HasPrefix(href, "http") {
		href = siteOrigin + href
	}

	img, _ := sel.Find("img").First().Attr("src")

	return domain.Listing{
		ID:        ListingID(href),
		Title:     title,
		Price:     parsePrice(priceText),
		PriceText: priceText,
		URL:       href,
		ImageURL:  img,
		Brand:     c.Brand,
		Size:      c.Size,
		PostedAt:  time.Now().UTC(),
		SearchID:  c.SearchID,
	}, true
}

// parsePrice extracts the numeric amount from a display price like
// "15,50 €". Unparseable text yields 0.
func parsePrice(text string) float64 {
	clean := strings.NewReplacer("€", "", " ", "", " ", "", ",", ".").Replace(text)
	price, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return price
}
