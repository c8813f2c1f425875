package domain

// Outcome identifies which side of a binary market a wager backs.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// IsYes reports whether the outcome is the yes side.
func (o Outcome) IsYes() bool { return o == OutcomeYes }

// BetRequest is the transient payload for a bet submission. It is constructed
// immediately before posting to the backend and discarded after.
type BetRequest struct {
	MarketID int64
	Amount   float64
	IsYes    bool
}

// BetReceipt is the backend's answer to a bet submission.
type BetReceipt struct {
	Success         bool
	TransactionHash string
	Message         string
}

// ShortHash returns the transaction hash truncated for display, matching the
// 10-character prefix shown in bet confirmations.
func (r BetReceipt) ShortHash() string {
	if len(r.TransactionHash) <= 10 {
		return r.TransactionHash
	}
	return r.TransactionHash[:10] + "..."
}

// DialogState tracks the betting flow state machine.
type DialogState int

const (
	// DialogIdle means no bet dialog is open.
	DialogIdle DialogState = iota
	// DialogOpen means a market is selected and the dialog accepts input.
	DialogOpen
	// DialogSubmitting means a validated bet is in flight to the backend.
	DialogSubmitting
)

// String returns the state name for logging.
func (s DialogState) String() string {
	switch s {
	case DialogIdle:
		return "idle"
	case DialogOpen:
		return "open"
	case DialogSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}
