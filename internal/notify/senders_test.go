package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordSenderEmbed(t *testing.T) {
	var got discordWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewDiscordSender(srv.URL)
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	err := sender.Send(context.Background(), Event{
		Type:    EventBetPlaced,
		Title:   "Bet placed",
		Message: "market 1: 10 BNB on yes",
		At:      at,
	})
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "Bet placed", embed.Title)
	assert.Equal(t, "market 1: 10 BNB on yes", embed.Description)
	assert.Equal(t, discordColors[EventBetPlaced], embed.Color)
	assert.Equal(t, "2026-08-30T12:00:00Z", embed.Timestamp)
	assert.Equal(t, EventBetPlaced, embed.Footer.Text)
}

func TestDiscordSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := NewDiscordSender(srv.URL)
	err := sender.Send(context.Background(), Event{Type: EventError, Title: "oops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTelegramSenderForm(t *testing.T) {
	var path, text, parseMode, chatID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, r.ParseForm())
		text = r.PostForm.Get("text")
		parseMode = r.PostForm.Get("parse_mode")
		chatID = r.PostForm.Get("chat_id")
		_, _ = io.WriteString(w, `{"ok": true}`)
	}))
	defer srv.Close()

	sender := NewTelegramSender("bot-token", "chat-42")
	sender.apiBase = srv.URL
	err := sender.Send(context.Background(), Event{
		Type:    EventBetFailed,
		Title:   "Bet failed",
		Message: "market 1: backend <unreachable>",
	})
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "chat-42", chatID)
	assert.Equal(t, "HTML", parseMode)
	assert.Contains(t, text, "⛔ <b>Bet failed</b>")
	assert.Contains(t, text, "backend &lt;unreachable&gt;", "message bodies are HTML-escaped")
}

func TestSenderNames(t *testing.T) {
	assert.Equal(t, "discord", NewDiscordSender("http://x").Name())
	assert.Equal(t, "telegram", NewTelegramSender("t", "c").Name())
}
