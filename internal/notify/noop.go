package notify

import (
	"context"
	"log/slog"
)

// LogMessenger implements Messenger by logging messages instead of sending
// them. It backs demo runs and setups without a configured chat backend.
type LogMessenger struct {
	log *slog.Logger
}

// NewLogMessenger creates a messenger that logs and discards deliveries.
func NewLogMessenger(log *slog.Logger) *LogMessenger {
	if log == nil {
		log = slog.Default()
	}
	return &LogMessenger{log: log}
}

// SendDM logs and discards a direct message.
func (m *LogMessenger) SendDM(_ context.Context, userID string, msg Message) error {
	m.log.Info("notification discarded (no chat backend)",
		"target", "dm", "user", userID, "title", embedTitle(msg))
	return nil
}

// SendChannel logs and discards a channel message.
func (m *LogMessenger) SendChannel(_ context.Context, channelID string, msg Message) error {
	m.log.Info("notification discarded (no chat backend)",
		"target", "channel", "channel", channelID, "title", embedTitle(msg))
	return nil
}

// Me reports a placeholder identity.
func (m *LogMessenger) Me(_ context.Context) (string, error) {
	return "log-messenger", nil
}

func embedTitle(msg Message) string {
	if msg.Embed != nil {
		return msg.Embed.Title
	}
	return msg.Content
}

var _ Messenger = (*LogMessenger)(nil)
