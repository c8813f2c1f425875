package notify

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Message prefixes per event type.
var telegramEmoji = map[string]string{
	EventWalletConnected: "🔗",
	EventBetPlaced:       "🎯",
	EventBetFailed:       "⛔",
	EventMarketsDegraded: "📉",
	EventError:           "⛔",
}

// TelegramSender posts events to a chat through the Bot API.
type TelegramSender struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// ID.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers the event via sendMessage as an HTML-formatted form post: an
// emoji keyed by event type, the title in bold, the message below it.
func (t *TelegramSender) Send(ctx context.Context, ev Event) error {
	var b strings.Builder
	if emoji, ok := telegramEmoji[ev.Type]; ok {
		b.WriteString(emoji)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(ev.Title))
	if ev.Message != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(ev.Message))
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", b.String())
	form.Set("parse_mode", "HTML")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
