// Package render provides the terminal implementation of the client's render
// sink: market cards, the wallet panel, the bet dialog, and transient toasts.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// barWidth is the character width of the yes/no split bar on a market card.
const barWidth = 20

// defaultToastTTL is how long a toast stays active before auto-dismissal.
const defaultToastTTL = 5 * time.Second

// toastIcons keys a display icon by notification kind.
var toastIcons = map[domain.NotifyKind]string{
	domain.NotifySuccess: "✅",
	domain.NotifyError:   "❌",
	domain.NotifyWarning: "⚠️",
	domain.NotifyInfo:    "ℹ️",
}

// Toast is one active notification.
type Toast struct {
	ID      int
	Kind    domain.NotifyKind
	Message string
}

// Term renders to an io.Writer. Toasts are tracked with an expiry so they
// behave like their auto-dismissing on-screen counterparts: each one lives
// independently and can be dismissed early.
type Term struct {
	// ToastTTL overrides the 5-second toast lifetime; tests shorten it.
	ToastTTL time.Duration

	mu     sync.Mutex
	w      io.Writer
	toasts map[int]Toast
	nextID int
}

// NewTerm creates a terminal sink writing to w.
func NewTerm(w io.Writer) *Term {
	return &Term{
		ToastTTL: defaultToastTTL,
		w:        w,
		toasts:   make(map[int]Toast),
	}
}

// RenderMarkets draws one card per market, replacing prior output in the
// scrollback sense: a full header plus every card.
func (t *Term) RenderMarkets(markets []domain.Market) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n=== Markets (%d) ===\n", len(markets))
	for _, m := range markets {
		t.renderCard(m)
	}
}

// renderCard draws a single market card. Caller must hold t.mu.
func (t *Term) renderCard(m domain.Market) {
	fmt.Fprintf(t.w, "\n#%d  %s  [%s]\n", m.ID, m.Question, m.Category)
	fmt.Fprintf(t.w, "    Ends: %s\n", m.EndTime.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(t.w, "    YES %s %.1f%%\n", SplitBar(m.YesShare(), barWidth), m.YesShare())
	fmt.Fprintf(t.w, "    [YES %.2fx]  [NO %.2fx]\n", m.YesOdds, m.NoOdds)
	fmt.Fprintf(t.w, "    Pool: %.1fK BNB | Participants: %d\n", m.TotalVolume/1000, m.Participants())
}

// ShowWallet draws the connected-wallet panel, replacing the connect control.
func (t *Term) ShowWallet(view domain.WalletView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\nWallet %s | %.4f BNB | %.4f BPM\n",
		view.TruncatedAddress, view.Balances.BNB, view.Balances.BPM)
}

// ShowBetDialog draws the bet dialog for the selected market.
func (t *Term) ShowBetDialog(view domain.BetDialogView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n--- Place bet: %s ---\n", view.Question)
	fmt.Fprintf(t.w, "    YES %5.1f%% %s\n", view.YesShare, SplitBar(view.YesShare, barWidth))
	fmt.Fprintf(t.w, "    NO  %5.1f%% %s\n", view.NoShare, SplitBar(view.NoShare, barWidth))
	fmt.Fprintf(t.w, "    Outcome: %s. Set an amount, then submit.\n", view.DefaultOutcome)
}

// ShowPayout updates the payout preview line.
func (t *Term) ShowPayout(profit float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "    Potential profit: +%.2f BNB\n", profit)
}

// CloseBetDialog hides the dialog.
func (t *Term) CloseBetDialog() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.w, "--- dialog closed ---")
}

// Notify displays a toast. Toasts stack independently and expire after
// ToastTTL unless dismissed earlier.
func (t *Term) Notify(kind domain.NotifyKind, message string) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.toasts[id] = Toast{ID: id, Kind: kind, Message: message}
	ttl := t.ToastTTL
	fmt.Fprintf(t.w, "%s %s\n", toastIcons[kind], message)
	t.mu.Unlock()

	time.AfterFunc(ttl, func() {
		t.Dismiss(id)
	})
}

// Dismiss removes a toast before its expiry. Unknown ids are ignored, so the
// expiry timer racing a manual dismissal is harmless.
func (t *Term) Dismiss(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.toasts, id)
}

// ActiveToasts returns the currently displayed toasts, oldest first.
func (t *Term) ActiveToasts() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Toast, 0, len(t.toasts))
	for id := 0; id < t.nextID; id++ {
		if toast, ok := t.toasts[id]; ok {
			out = append(out, toast)
		}
	}
	return out
}

// SplitBar renders a share percentage in [0,100] as a fixed-width bar with
// the filled cells proportional to the share.
func SplitBar(share float64, width int) string {
	if share < 0 {
		share = 0
	}
	if share > 100 {
		share = 100
	}
	filled := int(share/100*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Compile-time interface check.
var _ domain.RenderSink = (*Term)(nil)
