// Package notify defines the notification boundary: rendering a listing
// into a deliverable message and fanning it out to the owner's targets.
package notify

import (
	"context"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// Message is a renderable notification payload. The core decides whether and
// to whom a message goes; what it looks like is the renderer's business.
type Message struct {
	Content string
	Embed   *Embed
}

// Embed mirrors the chat platform's rich-message shape.
type Embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Thumbnail   *Thumbnail   `json:"thumbnail,omitempty"`
	Footer      *Footer      `json:"footer,omitempty"`
}

// EmbedField is one labeled value inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Thumbnail is the embed's preview image.
type Thumbnail struct {
	URL string `json:"url"`
}

// Footer is the embed's footer line.
type Footer struct {
	Text string `json:"text"`
}

// Renderer produces the notification payload for a new listing, given a
// rendering language tag.
type Renderer interface {
	Render(l domain.Listing, lang string) Message
}

// Messenger is the chat-platform delivery boundary. Implementations deliver
// one message to one target; they do not decide routing.
type Messenger interface {
	// SendDM delivers msg to the user's direct messages.
	SendDM(ctx context.Context, userID string, msg Message) error
	// SendChannel delivers msg to a channel.
	SendChannel(ctx context.Context, channelID string, msg Message) error
	// Me returns the connected identity's user id; used as the runtime
	// readiness probe at startup.
	Me(ctx context.Context) (string, error)
}
