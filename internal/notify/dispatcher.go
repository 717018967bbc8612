package notify

import (
	"context"
	"log/slog"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/metrics"
	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// Target describes where one listing notification should go.
type Target struct {
	UserID    string
	DM        bool
	ChannelID string // empty means no channel delivery
	Lang      string
}

// Dispatcher fans one rendered notification out to the direct-message and
// channel targets independently. A failure on one path never prevents the
// other; failed deliveries are logged and counted, not retried within the
// cycle.
type Dispatcher struct {
	messenger Messenger
	renderer  Renderer
	log       *slog.Logger
}

// NewDispatcher creates a Dispatcher delivering through m, rendering with r.
func NewDispatcher(m Messenger, r Renderer, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{messenger: m, renderer: r, log: log}
}

// Dispatch renders the listing once and attempts each configured target.
// It returns the number of successful deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, t Target, l domain.Listing) int {
	msg := d.renderer.Render(l, t.Lang)
	sent := 0

	if t.DM {
		if err := d.messenger.SendDM(ctx, t.UserID, msg); err != nil {
			d.log.Warn("direct message delivery failed",
				"user", t.UserID, "listing", l.ID, "error", err)
			metrics.NotificationFailuresTotal.Inc()
		} else {
			sent++
			metrics.NotificationsSentTotal.Inc()
		}
	}

	if t.ChannelID != "" {
		channelMsg := msg
		channelMsg.Content = "<@" + t.UserID + ">"
		if err := d.messenger.SendChannel(ctx, t.ChannelID, channelMsg); err != nil {
			d.log.Error("channel delivery failed",
				"channel", t.ChannelID, "listing", l.ID, "error", err)
			metrics.NotificationFailuresTotal.Inc()
		} else {
			sent++
			metrics.NotificationsSentTotal.Inc()
		}
	}

	return sent
}
