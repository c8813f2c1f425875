package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embed colors per event type (Discord decimal RGB).
var discordColors = map[string]int{
	EventWalletConnected: 0x3498db, // blue
	EventBetPlaced:       0x2ecc71, // green
	EventBetFailed:       0xe74c3c, // red
	EventMarketsDegraded: 0xe67e22, // orange
	EventError:           0xe74c3c, // red
}

// discordEmbed is the webhook embed object, one per event.
type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Color       int           `json:"color,omitempty"`
	Timestamp   string        `json:"timestamp,omitempty"`
	Footer      discordFooter `json:"footer"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordSender posts events to a Discord webhook as colored embeds.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the event as a single embed. The embed color follows the event
// type so bet failures and degradations stand out in the channel.
func (d *DiscordSender) Send(ctx context.Context, ev Event) error {
	embed := discordEmbed{
		Title:       ev.Title,
		Description: ev.Message,
		Color:       discordColors[ev.Type],
	}
	if !ev.At.IsZero() {
		embed.Timestamp = ev.At.Format(time.RFC3339)
	}
	embed.Footer = discordFooter{Text: ev.Type}

	body, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
