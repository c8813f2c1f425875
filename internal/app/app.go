// Package app provides the top-level application lifecycle for the BPM
// client. It wires the collaborators (backend client, wallet bridge, cache,
// notifier, render sink) into the controller and runs the configured mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bpmlabs/bpmclient/internal/config"
)

// BetParams carries the scripted wager for the one-shot "bet" mode.
type BetParams struct {
	MarketID int64
	Amount   float64
	Outcome  string
}

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg *config.Config
	// base is the configured root logger handed to wired components; logger
	// carries the app component tag for App's own messages.
	base    *slog.Logger
	logger  *slog.Logger
	bet     BetParams
	closers []func()
}

// New creates a new App from the given configuration and logger. bet is only
// consulted in "bet" mode.
func New(cfg *config.Config, logger *slog.Logger, bet BetParams) *App {
	return &App{
		cfg:    cfg,
		base:   logger,
		logger: logger.With(slog.String("component", "app")),
		bet:    bet,
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, and blocks until the mode finishes or the context is
// cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting client",
		slog.String("mode", a.cfg.Mode),
		slog.String("backend", a.cfg.Backend.BaseURL),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.base)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	mode := strings.ToLower(a.cfg.Mode)
	switch mode {
	case "interactive":
		return a.InteractiveMode(ctx, deps)
	case "markets":
		return a.MarketsMode(ctx, deps)
	case "watch":
		return a.WatchMode(ctx, deps)
	case "bet":
		return a.BetMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down client")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
