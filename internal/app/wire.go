package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bpmlabs/bpmclient/internal/cache/redis"
	"github.com/bpmlabs/bpmclient/internal/config"
	"github.com/bpmlabs/bpmclient/internal/domain"
	"github.com/bpmlabs/bpmclient/internal/notify"
	"github.com/bpmlabs/bpmclient/internal/platform/bpm"
	"github.com/bpmlabs/bpmclient/internal/render"
	"github.com/bpmlabs/bpmclient/internal/wallet"
)

// Dependencies bundles everything the modes need to build a controller. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Backend serves both market listing and bet placement.
	Backend *bpm.Client
	// Bridge is nil when no wallet key is configured (browse-only).
	Bridge domain.WalletBridge
	// Cache is nil unless the redis fallback tier is enabled.
	Cache domain.MarketCache
	// Sink is the terminal render target.
	Sink *render.Term
	// Notifier mirrors events to operator channels.
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources. Every wired component logs
// through the given logger so the whole binary honors one handler and level.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Backend: bpm.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout.Duration),
		Sink:    render.NewTerm(os.Stdout),
	}

	// --- Wallet bridge (only when a key source is configured) ---
	if cfg.WalletConfigured() {
		bridge, err := wallet.New(ctx, wallet.Config{
			RpcURL:       cfg.Wallet.RpcURL,
			TokenAddress: cfg.Contracts.TokenAddress,
			Key: wallet.KeyConfig{
				RawPrivateKey:    cfg.Wallet.PrivateKey,
				EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
				KeyPassword:      cfg.Wallet.KeyPassword,
			},
			Authorize: stdinAuthorizer,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet: %w", err)
		}
		closers = append(closers, bridge.Close)
		deps.Bridge = bridge
	}

	// --- Redis market cache (optional fallback tier) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.Options{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Cache = redis.NewMarketCache(redisClient)
	}

	// --- Operator notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// stdinAuthorizer is the terminal stand-in for a wallet's approval prompt:
// account access is granted only on an explicit yes.
func stdinAuthorizer(address string) bool {
	fmt.Printf("Authorize account access for %s? [y/N] ", domain.TruncateAddress(address))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
