package domain

import "context"

// MarketSource lists markets from the backend.
type MarketSource interface {
	// ListMarkets returns markets in the given status. An empty slice is a
	// valid answer and must not be treated as a failure.
	ListMarkets(ctx context.Context, status MarketStatus) ([]Market, error)
}

// BetPlacer submits bets to the backend.
type BetPlacer interface {
	// PlaceBet posts the request and returns the backend's receipt. A
	// transport failure is returned as an error wrapping ErrBackendDown; a
	// backend that answered but declined the bet is reported through the
	// receipt, not the error.
	PlaceBet(ctx context.Context, req BetRequest) (BetReceipt, error)
}

// MarketCache stores the last successfully fetched market list so a backend
// outage can be bridged with recent data before falling back to the built-in
// samples.
type MarketCache interface {
	SetList(ctx context.Context, markets []Market) error
	// GetList returns the cached list, or ErrNotFound when absent/expired.
	GetList(ctx context.Context) ([]Market, error)
}

// NotifyKind classifies a user-facing toast.
type NotifyKind string

const (
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
	NotifyWarning NotifyKind = "warning"
	NotifyInfo    NotifyKind = "info"
)

// BetDialogView is the data the sink needs to draw the bet dialog.
type BetDialogView struct {
	MarketID       int64
	Question       string
	YesShare       float64
	NoShare        float64
	DefaultOutcome Outcome
}

// WalletView is the data the sink needs to draw the connected-wallet panel.
type WalletView struct {
	Address          string // full address
	TruncatedAddress string
	Balances         Balances
}

// RenderSink is the rendering surface the controller draws on. A terminal
// sink ships with the client; tests inject a recording fake. Implementations
// must tolerate being called before any prior render.
type RenderSink interface {
	// RenderMarkets replaces the whole market card list.
	RenderMarkets(markets []Market)
	// ShowWallet switches the connect control to the connected panel.
	ShowWallet(view WalletView)
	// ShowBetDialog opens (or re-populates) the bet dialog.
	ShowBetDialog(view BetDialogView)
	// ShowPayout updates the payout preview line with the potential profit.
	ShowPayout(profit float64)
	// CloseBetDialog hides the dialog.
	CloseBetDialog()
	// Notify displays a transient toast of the given kind.
	Notify(kind NotifyKind, message string)
}
