package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultAPIBase = "https://discord.com/api/v10"

// DiscordMessenger implements Messenger over the Discord REST API with a bot
// token. Outbound sends are paced so notification bursts stay under the
// platform's own rate limits.
type DiscordMessenger struct {
	apiBase string
	token   string
	client  *http.Client
	limiter *rate.Limiter

	mu         sync.Mutex
	dmChannels map[string]string // user id -> DM channel id
}

// DiscordOption configures a DiscordMessenger.
type DiscordOption func(*DiscordMessenger)

// WithAPIBase overrides the REST endpoint, for tests.
func WithAPIBase(base string) DiscordOption {
	return func(d *DiscordMessenger) {
		d.apiBase = base
	}
}

// WithDiscordHTTPClient sets a custom HTTP client.
func WithDiscordHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordMessenger) {
		d.client = c
	}
}

// WithSendRate overrides the outbound send pacing.
func WithSendRate(perSecond float64, burst int) DiscordOption {
	return func(d *DiscordMessenger) {
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewDiscordMessenger creates a messenger authenticating with the bot token.
func NewDiscordMessenger(token string, opts ...DiscordOption) *DiscordMessenger {
	d := &DiscordMessenger{
		apiBase:    defaultAPIBase,
		token:      token,
		client:     &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		dmChannels: make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type messagePayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// SendChannel posts msg to the given channel.
func (d *DiscordMessenger) SendChannel(ctx context.Context, channelID string, msg Message) error {
	payload := messagePayload{Content: msg.Content}
	if msg.Embed != nil {
		payload.Embeds = []Embed{*msg.Embed}
	}

	return d.post(ctx, "/channels/"+channelID+"/messages", payload, nil)
}

// SendDM opens (or reuses) the user's DM channel and posts msg to it.
func (d *DiscordMessenger) SendDM(ctx context.Context, userID string, msg Message) error {
	channelID, err := d.dmChannel(ctx, userID)
	if err != nil {
		return err
	}
	return d.SendChannel(ctx, channelID, msg)
}

// Me returns the bot's own user id, verifying the token works.
func (d *DiscordMessenger) Me(ctx context.Context) (string, error) {
	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := d.get(ctx, "/users/@me", &me); err != nil {
		return "", err
	}
	return me.ID, nil
}

func (d *DiscordMessenger) dmChannel(ctx context.Context, userID string) (string, error) {
	d.mu.Lock()
	cached, ok := d.dmChannels[userID]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	var channel struct {
		ID string `json:"id"`
	}
	err := d.post(ctx, "/users/@me/channels",
		map[string]string{"recipient_id": userID}, &channel)
	if err != nil {
		return "", fmt.Errorf("opening DM channel: %w", err)
	}

	d.mu.Lock()
	d.dmChannels[userID] = channel.ID
	d.mu.Unlock()
	return channel.ID, nil
}

func (d *DiscordMessenger) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}
	return d.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (d *DiscordMessenger) get(ctx context.Context, path string, out any) error {
	return d.do(ctx, http.MethodGet, path, nil, out)
}

func (d *DiscordMessenger) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send pacing: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.apiBase+path, body)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("User-Agent", "VintedBot (https://github.com/Roroz7/Miky-Vinted-discord-bot, 1.0)")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding discord response: %w", err)
		}
	}
	return nil
}

var _ Messenger = (*DiscordMessenger)(nil)
