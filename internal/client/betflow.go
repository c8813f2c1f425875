package client

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/bpmlabs/bpmclient/internal/domain"
	"github.com/bpmlabs/bpmclient/internal/notify"
)

// defaultYesOdds is the payout multiplier used for the preview when no market
// is selected.
const defaultYesOdds = 1.85

// PlaceBet starts the betting flow for a market. Without a connected account
// it warns the user and runs the connect flow instead; the dialog is not
// opened for this call even if the connection succeeds, matching a click that
// first has to authorize the wallet.
func (c *Client) PlaceBet(ctx context.Context, marketID int64, outcome domain.Outcome) {
	c.mu.Lock()
	connected := c.account != ""
	c.mu.Unlock()

	if !connected {
		c.sink.Notify(domain.NotifyWarning, "Connect your wallet first")
		_ = c.ConnectWallet(ctx)
		return
	}

	c.OpenBetModal(marketID, outcome)
}

// OpenBetModal selects the market by ID and opens the bet dialog populated
// with its question and bettor shares. An unknown ID is a no-op.
func (c *Client) OpenBetModal(marketID int64, defaultOutcome domain.Outcome) {
	c.mu.Lock()
	var market *domain.Market
	for i := range c.markets {
		if c.markets[i].ID == marketID {
			m := c.markets[i]
			market = &m
			break
		}
	}
	if market == nil {
		c.mu.Unlock()
		c.logger.Debug("bet dialog for unknown market", slog.Int64("market_id", marketID))
		return
	}

	c.selected = market
	c.amount = 0
	c.dialog = domain.DialogOpen
	view := domain.BetDialogView{
		MarketID:       market.ID,
		Question:       market.Question,
		YesShare:       market.YesShare(),
		NoShare:        market.NoShare(),
		DefaultOutcome: defaultOutcome,
	}
	c.mu.Unlock()

	c.sink.ShowBetDialog(view)
}

// CloseBetModal hides the dialog and returns the flow to idle. The selected
// market is kept until the next dialog open overwrites it.
func (c *Client) CloseBetModal() {
	c.mu.Lock()
	c.dialog = domain.DialogIdle
	c.mu.Unlock()
	c.sink.CloseBetDialog()
}

// SetAmount stores the wager amount and refreshes the payout preview.
func (c *Client) SetAmount(amount float64) {
	c.mu.Lock()
	c.amount = amount
	c.mu.Unlock()
	c.sink.ShowPayout(c.PayoutPreview())
}

// PayoutPreview returns the potential profit for the current amount at the
// selected market's yes multiplier, rounded to two decimals. With no market
// selected the multiplier defaults to 1.85. The preview always uses the yes
// side, whichever outcome the user ends up choosing.
func (c *Client) PayoutPreview() float64 {
	c.mu.Lock()
	amount := c.amount
	odds := defaultYesOdds
	if c.selected != nil {
		odds = c.selected.YesOdds
	}
	c.mu.Unlock()

	profit := amount * (odds - 1)
	return math.Round(profit*100) / 100
}

// DialogState returns the current betting flow state.
func (c *Client) DialogState() domain.DialogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

// Selected returns a copy of the selected market, if any.
func (c *Client) Selected() (domain.Market, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return domain.Market{}, false
	}
	return *c.selected, true
}

// SubmitBet validates the flow state and posts the bet. Validation failures
// never reach the network and leave the dialog open with an error toast.
// Submission is only accepted from the open-dialog state, so a repeated
// submit after success or after closing the dialog cannot double-post a
// wager. A backend-declined bet keeps the dialog open with the server's
// message. A transport failure is reported as its own error state, dialog
// still open, so the user knows the bet was NOT recorded. Only a confirmed
// bet closes the dialog and refreshes the wallet.
func (c *Client) SubmitBet(ctx context.Context, outcome domain.Outcome) error {
	c.mu.Lock()
	account := c.account
	amount := c.amount
	selected := c.selected
	dialog := c.dialog
	c.mu.Unlock()

	if account == "" {
		c.sink.Notify(domain.NotifyError, "Connect your wallet first")
		return domain.ErrNoAccount
	}
	if math.IsNaN(amount) || amount <= 0 {
		c.sink.Notify(domain.NotifyError, "Enter a valid bet amount")
		return domain.ErrInvalidAmount
	}
	if selected == nil {
		c.sink.Notify(domain.NotifyError, "No market selected")
		return domain.ErrNoMarketSelected
	}
	if dialog != domain.DialogOpen {
		c.sink.Notify(domain.NotifyError, "No bet in progress")
		return domain.ErrNoBetInProgress
	}

	c.mu.Lock()
	c.dialog = domain.DialogSubmitting
	c.mu.Unlock()

	req := domain.BetRequest{
		MarketID: selected.ID,
		Amount:   amount,
		IsYes:    outcome.IsYes(),
	}

	receipt, err := c.bets.PlaceBet(ctx, req)
	if err != nil {
		c.mu.Lock()
		c.dialog = domain.DialogOpen
		c.mu.Unlock()
		c.sink.Notify(domain.NotifyError,
			"Bet NOT placed, backend unreachable: "+err.Error())
		c.notifyOp(ctx, notify.EventBetFailed, "Bet failed",
			fmt.Sprintf("market %d: %v", selected.ID, err))
		return err
	}

	if !receipt.Success {
		c.mu.Lock()
		c.dialog = domain.DialogOpen
		c.mu.Unlock()
		c.sink.Notify(domain.NotifyError, "Bet failed: "+receipt.Message)
		c.notifyOp(ctx, notify.EventBetFailed, "Bet failed",
			fmt.Sprintf("market %d: %s", selected.ID, receipt.Message))
		return fmt.Errorf("%w: %s", domain.ErrBetRejected, receipt.Message)
	}

	c.mu.Lock()
	c.dialog = domain.DialogIdle
	c.mu.Unlock()

	c.sink.Notify(domain.NotifySuccess, fmt.Sprintf(
		"Bet placed: %s BNB on %s (tx %s)",
		formatAmount(amount), outcome, receipt.ShortHash(),
	))
	c.sink.CloseBetDialog()
	c.RefreshWallet(ctx)
	c.notifyOp(ctx, notify.EventBetPlaced, "Bet placed", fmt.Sprintf(
		"market %d: %s BNB on %s, tx %s",
		selected.ID, formatAmount(amount), outcome, receipt.ShortHash(),
	))
	return nil
}

// formatAmount renders a wager amount without trailing zeros ("10", "2.5").
func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}
