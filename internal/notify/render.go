package notify

import (
	"fmt"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

const (
	colorBlue = 0x3498DB

	maxEmbedTitle = 256 // platform limit
)

type labels struct {
	newItem   string
	price     string
	brand     string
	size      string
	condition string
	seller    string
}

var labelsByLang = map[string]labels{
	"fr": {
		newItem:   "Nouvel article trouvé !",
		price:     "Prix",
		brand:     "Marque",
		size:      "Taille",
		condition: "État",
		seller:    "Vendeur",
	},
	"en": {
		newItem:   "New item found!",
		price:     "Price",
		brand:     "Brand",
		size:      "Size",
		condition: "Condition",
		seller:    "Seller",
	},
}

// EmbedRenderer renders a listing as a rich embed, in the style of the chat
// platform's link cards.
type EmbedRenderer struct{}

// Render implements Renderer.
func (EmbedRenderer) Render(l domain.Listing, lang string) Message {
	lbl, ok := labelsByLang[lang]
	if !ok {
		lbl = labelsByLang["fr"]
	}

	title := l.Title
	if len(title) > maxEmbedTitle {
		title = title[:maxEmbedTitle]
	}

	embed := &Embed{
		Title:       title,
		URL:         l.URL,
		Description: fmt.Sprintf("**%s:** %s", lbl.price, l.PriceText),
		Color:       colorBlue,
		Footer:      &Footer{Text: "Vinted • " + lbl.newItem},
	}

	if l.ImageURL != "" {
		embed.Thumbnail = &Thumbnail{URL: l.ImageURL}
	}
	if l.Brand != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: lbl.brand, Value: l.Brand, Inline: true})
	}
	if l.Size != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: lbl.size, Value: l.Size, Inline: true})
	}
	if l.Condition != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: lbl.condition, Value: l.Condition, Inline: true})
	}
	if l.SellerRating != nil {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   lbl.seller,
			Value:  fmt.Sprintf("%.1f/5", *l.SellerRating),
			Inline: true,
		})
	}

	return Message{Embed: embed}
}
