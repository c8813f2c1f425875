// Package client implements the market client controller: wallet connection,
// market listing with fallback, and the betting flow. All collaborators are
// injected so the controller can be exercised without a browser, a chain node,
// or a live backend.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bpmlabs/bpmclient/internal/domain"
	"github.com/bpmlabs/bpmclient/internal/notify"
)

// Options bundles the collaborators a Client needs. Bridge, Cache, and
// Notifier are optional; Source, Bets, and Sink are required.
type Options struct {
	// Bridge is the wallet environment; nil means no wallet is available and
	// ConnectWallet reports that to the user.
	Bridge domain.WalletBridge
	// Source lists markets from the backend.
	Source domain.MarketSource
	// Bets submits bets to the backend.
	Bets domain.BetPlacer
	// Cache, when set, stores the last good market list as a fallback tier.
	Cache domain.MarketCache
	// Sink is the rendering surface.
	Sink domain.RenderSink
	// Notifier, when set, mirrors notable events to operator channels.
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// Client is the coordinating controller. It holds the current market list,
// the connection state, and the bet dialog state, and orchestrates renders
// and network calls around them.
type Client struct {
	bridge   domain.WalletBridge
	source   domain.MarketSource
	bets     domain.BetPlacer
	cache    domain.MarketCache
	sink     domain.RenderSink
	notifier *notify.Notifier
	logger   *slog.Logger

	// loadGen and balGen are generation counters: a superseded load or
	// balance refresh observes a newer generation and drops its result
	// instead of overwriting fresher state.
	loadGen uint64
	balGen  uint64

	mu       sync.Mutex
	markets  []domain.Market
	account  string
	balances domain.Balances
	selected *domain.Market
	amount   float64
	dialog   domain.DialogState

	unsubscribe func()
}

// New creates a Client from the given options.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		bridge:   opts.Bridge,
		source:   opts.Source,
		bets:     opts.Bets,
		cache:    opts.Cache,
		sink:     opts.Sink,
		notifier: opts.Notifier,
		logger:   logger.With(slog.String("component", "client")),
	}
}

// Init performs startup: best-effort bridge detection, the initial market
// load (failures are absorbed by the fallback chain, never surfaced as an
// init failure), and the first render. Wiring user actions to operations is
// the caller's job; in the terminal binary the REPL plays that role.
func (c *Client) Init(ctx context.Context) {
	if c.bridge != nil {
		c.logger.InfoContext(ctx, "wallet bridge detected")
	} else {
		c.logger.InfoContext(ctx, "no wallet bridge, running browse-only")
	}
	c.LoadMarkets(ctx)
}

// ConnectWallet requests account access from the bridge, stores the first
// account, refreshes the balance display, and registers a listener that
// re-runs the refresh on account changes. Absence of a bridge and rejection
// by the user are reported to the user and abort the operation; there is no
// retry.
func (c *Client) ConnectWallet(ctx context.Context) error {
	if c.bridge == nil {
		c.sink.Notify(domain.NotifyError, "No wallet available. Install a wallet or configure a key.")
		return domain.ErrWalletMissing
	}

	accounts, err := c.bridge.RequestAccounts(ctx)
	if err != nil {
		c.sink.Notify(domain.NotifyError, "Wallet connection failed: "+err.Error())
		c.notifyOp(ctx, notify.EventError, "Wallet connection failed", err.Error())
		return err
	}
	if len(accounts) == 0 {
		c.sink.Notify(domain.NotifyError, "Wallet returned no accounts")
		return domain.ErrWalletRejected
	}

	c.mu.Lock()
	c.account = accounts[0]
	firstConnect := c.unsubscribe == nil
	c.mu.Unlock()

	c.RefreshWallet(ctx)

	if firstConnect {
		cancel := c.bridge.OnAccountsChanged(func(accounts []string) {
			if len(accounts) == 0 {
				return
			}
			c.mu.Lock()
			c.account = accounts[0]
			c.mu.Unlock()
			c.RefreshWallet(context.Background())
		})
		c.mu.Lock()
		c.unsubscribe = cancel
		c.mu.Unlock()
	}

	c.sink.Notify(domain.NotifySuccess, "Wallet connected")
	c.notifyOp(ctx, notify.EventWalletConnected, "Wallet connected", domain.TruncateAddress(accounts[0]))
	return nil
}

// RefreshWallet updates the wallet panel with the current balances. It is a
// no-op without a connected account. Balance query failures are logged but
// not surfaced to the user; the token balance is best-effort on top of that.
func (c *Client) RefreshWallet(ctx context.Context) {
	c.mu.Lock()
	account := c.account
	c.mu.Unlock()
	if account == "" {
		return
	}

	gen := atomic.AddUint64(&c.balGen, 1)

	bnb, err := c.bridge.Balance(ctx, account)
	if err != nil {
		c.logger.WarnContext(ctx, "balance query failed",
			slog.String("address", account),
			slog.String("error", err.Error()),
		)
		return
	}

	bpm, err := c.bridge.TokenBalance(ctx, account)
	if err != nil {
		c.logger.WarnContext(ctx, "token balance query failed",
			slog.String("address", account),
			slog.String("error", err.Error()),
		)
		bpm = 0
	}

	if atomic.LoadUint64(&c.balGen) != gen {
		c.logger.DebugContext(ctx, "dropping stale balance result")
		return
	}

	c.mu.Lock()
	c.balances = domain.Balances{BNB: bnb, BPM: bpm}
	view := domain.WalletView{
		Address:          account,
		TruncatedAddress: domain.TruncateAddress(account),
		Balances:         c.balances,
	}
	c.mu.Unlock()

	c.sink.ShowWallet(view)
}

// LoadMarkets fetches the active market list and re-renders. On success the
// in-memory list is replaced wholesale, even by a valid empty answer. On any
// failure the client falls back to the cached last-good list and then to the
// built-in samples; the user sees markets either way, while the degradation
// is logged and reported on the operator channel. Results of a load that was
// superseded by a newer one are dropped.
func (c *Client) LoadMarkets(ctx context.Context) {
	gen := atomic.AddUint64(&c.loadGen, 1)

	markets, err := c.source.ListMarkets(ctx, domain.MarketStatusActive)
	if err != nil {
		c.logger.WarnContext(ctx, "market list fetch failed, falling back",
			slog.String("error", err.Error()),
		)
		c.notifyOp(ctx, notify.EventMarketsDegraded, "Market list degraded", err.Error())
		markets = c.fallbackMarkets(ctx)
	} else if c.cache != nil {
		if err := c.cache.SetList(ctx, markets); err != nil {
			c.logger.WarnContext(ctx, "market cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if atomic.LoadUint64(&c.loadGen) != gen {
		c.logger.DebugContext(ctx, "dropping stale market list")
		return
	}

	c.mu.Lock()
	c.markets = markets
	c.mu.Unlock()

	c.RenderMarkets()
}

// ApplyMarketUpdate replaces one market in the list (matched by ID) and
// re-renders. Updates for unknown markets are appended only when active.
// This is the entry point for the live stream.
func (c *Client) ApplyMarketUpdate(market domain.Market) {
	c.mu.Lock()
	found := false
	for i := range c.markets {
		if c.markets[i].ID == market.ID {
			c.markets[i] = market
			found = true
			break
		}
	}
	if !found && market.Status == domain.MarketStatusActive {
		c.markets = append(c.markets, market)
	}
	c.mu.Unlock()

	c.RenderMarkets()
}

// RenderMarkets projects the in-memory market list onto the sink. Re-renders
// fully replace prior output.
func (c *Client) RenderMarkets() {
	if c.sink == nil {
		return
	}
	c.mu.Lock()
	markets := make([]domain.Market, len(c.markets))
	copy(markets, c.markets)
	c.mu.Unlock()

	c.sink.RenderMarkets(markets)
}

// Markets returns a copy of the current market list.
func (c *Client) Markets() []domain.Market {
	c.mu.Lock()
	defer c.mu.Unlock()
	markets := make([]domain.Market, len(c.markets))
	copy(markets, c.markets)
	return markets
}

// Account returns the connected account address, or "" when disconnected.
func (c *Client) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// Balances returns the cached balances of the connected account.
func (c *Client) Balances() domain.Balances {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances
}

// Close cancels the accounts-changed registration.
func (c *Client) Close() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// fallbackMarkets returns the cached last-good list when available, else the
// built-in samples.
func (c *Client) fallbackMarkets(ctx context.Context) []domain.Market {
	if c.cache != nil {
		cached, err := c.cache.GetList(ctx)
		if err == nil {
			c.logger.InfoContext(ctx, "serving cached market list",
				slog.Int("count", len(cached)),
			)
			return cached
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WarnContext(ctx, "market cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return sampleMarkets()
}

// notifyOp mirrors an event to the operator notifier, if one is configured.
func (c *Client) notifyOp(ctx context.Context, event, title, message string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, event, title, message); err != nil {
		c.logger.WarnContext(ctx, "operator notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
