// Package notify mirrors notable client events (bets, wallet connections,
// market-list degradation) to operator channels. User-facing toasts are the
// render sink's job; this package carries the structured counterpart of the
// interesting ones to Telegram and Discord, filtered by event type.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Event types emitted by the client.
const (
	EventWalletConnected = "wallet_connected"
	EventBetPlaced       = "bet_placed"
	EventBetFailed       = "bet_failed"
	EventMarketsDegraded = "markets_degraded"
	EventError           = "error"
)

// Event is one operator notification. Senders format it for their channel;
// the type drives per-channel styling (colors, emoji).
type Event struct {
	Type    string
	Title   string
	Message string
	At      time.Time
}

// Sender is one delivery channel for operator events.
type Sender interface {
	// Send delivers the event. Implementations must respect ctx.
	Send(ctx context.Context, ev Event) error
	// Name identifies the channel in logs (e.g. "telegram").
	Name() string
}

// Notifier fans events out to its senders. It holds an allow-set of event
// types; Notify drops events outside the set before they reach any sender.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only events
// whose type appears in events are forwarded; an empty events slice allows
// every type.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify builds an Event of the given type and fans it out, subject to the
// event filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, Event{
		Type:    event,
		Title:   title,
		Message: message,
		At:      time.Now().UTC(),
	})
}

// dispatch delivers ev to every sender. Sender failures are collected into a
// combined error; one failing channel never blocks the others.
func (n *Notifier) dispatch(ctx context.Context, ev Event) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, ev); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", ev.Type),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("event", ev.Type),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
