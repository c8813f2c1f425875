package client

import (
	"context"
	"sync"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// fakeSource serves a canned market list or delegates to fn when set.
type fakeSource struct {
	mu      sync.Mutex
	markets []domain.Market
	err     error
	calls   int
	fn      func(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error)
}

func (f *fakeSource) ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	f.mu.Lock()
	f.calls++
	fn, markets, err := f.fn, f.markets, f.err
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, status)
	}
	return markets, err
}

// fakeBets records bet submissions and answers with a canned receipt.
type fakeBets struct {
	mu       sync.Mutex
	receipt  domain.BetReceipt
	err      error
	requests []domain.BetRequest
}

func (f *fakeBets) PlaceBet(_ context.Context, req domain.BetRequest) (domain.BetReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.receipt, f.err
}

func (f *fakeBets) placed() []domain.BetRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.BetRequest(nil), f.requests...)
}

// fakeCache is an in-memory MarketCache.
type fakeCache struct {
	mu     sync.Mutex
	list   []domain.Market
	getErr error
	setErr error
	sets   int
}

func (f *fakeCache) SetList(_ context.Context, markets []domain.Market) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.list = append([]domain.Market(nil), markets...)
	return nil
}

func (f *fakeCache) GetList(_ context.Context) ([]domain.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.list == nil {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Market(nil), f.list...), nil
}

// fakeBridge is a scriptable wallet environment.
type fakeBridge struct {
	mu           sync.Mutex
	accounts     []string
	requestErr   error
	requestCalls int
	bnb          float64
	bnbErr       error
	balanceCalls int
	bpm          float64
	bpmErr       error
	listeners    []func([]string)
	cancelled    int
}

func (f *fakeBridge) RequestAccounts(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return append([]string(nil), f.accounts...), nil
}

func (f *fakeBridge) Balance(context.Context, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.bnb, f.bnbErr
}

func (f *fakeBridge) TokenBalance(context.Context, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bpm, f.bpmErr
}

func (f *fakeBridge) OnAccountsChanged(fn func([]string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled++
	}
}

// fireAccountsChanged invokes every registered listener with the new set.
func (f *fakeBridge) fireAccountsChanged(accounts []string) {
	f.mu.Lock()
	listeners := append(([]func([]string))(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(accounts)
	}
}

// toast is one recorded sink notification.
type toast struct {
	kind    domain.NotifyKind
	message string
}

// fakeSink records every render call.
type fakeSink struct {
	mu       sync.Mutex
	rendered [][]domain.Market
	wallets  []domain.WalletView
	dialogs  []domain.BetDialogView
	payouts  []float64
	closed   int
	toasts   []toast
}

func (f *fakeSink) RenderMarkets(markets []domain.Market) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = append(f.rendered, append([]domain.Market(nil), markets...))
}

func (f *fakeSink) ShowWallet(view domain.WalletView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets = append(f.wallets, view)
}

func (f *fakeSink) ShowBetDialog(view domain.BetDialogView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialogs = append(f.dialogs, view)
}

func (f *fakeSink) ShowPayout(profit float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payouts = append(f.payouts, profit)
}

func (f *fakeSink) CloseBetDialog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeSink) Notify(kind domain.NotifyKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, toast{kind: kind, message: message})
}

func (f *fakeSink) lastRender() []domain.Market {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rendered) == 0 {
		return nil
	}
	return f.rendered[len(f.rendered)-1]
}

func (f *fakeSink) allToasts() []toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toast(nil), f.toasts...)
}

func (f *fakeSink) lastToast() (toast, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toasts) == 0 {
		return toast{}, false
	}
	return f.toasts[len(f.toasts)-1], true
}

func (f *fakeSink) dialogCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dialogs)
}

func (f *fakeSink) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Interface conformance for the fakes.
var (
	_ domain.MarketSource = (*fakeSource)(nil)
	_ domain.BetPlacer    = (*fakeBets)(nil)
	_ domain.MarketCache  = (*fakeCache)(nil)
	_ domain.WalletBridge = (*fakeBridge)(nil)
	_ domain.RenderSink   = (*fakeSink)(nil)
)
