// Package domain holds the core types and port interfaces of the BPM
// prediction market client. Implementations live in sibling packages.
package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive  MarketStatus = "Active"
	MarketStatusClosed  MarketStatus = "Closed"
	MarketStatusSettled MarketStatus = "Settled"
)

// Market represents a single binary (yes/no) prediction market. Markets are
// read-only from the client's perspective: the list is replaced wholesale on
// each refresh and entries are never mutated in place.
type Market struct {
	ID          int64
	Question    string
	Category    string
	Status      MarketStatus
	TotalVolume float64
	// YesOdds and NoOdds are payout multipliers; profit on a winning wager
	// of amount a at odds m is a*(m-1).
	YesOdds    float64
	NoOdds     float64
	YesBettors int
	NoBettors  int
	EndTime    time.Time
}

// Participants returns the total number of bettors on either side.
func (m Market) Participants() int {
	return m.YesBettors + m.NoBettors
}

// YesShare returns the yes side's share of bettors as a percentage in
// [0,100]. It is 0 when the market has no bettors. The visual split bar is
// sized from this value rather than from the raw bettor count, which is only
// a percentage by accident when the two counts happen to sum to 100.
func (m Market) YesShare() float64 {
	total := m.YesBettors + m.NoBettors
	if total == 0 {
		return 0
	}
	return float64(m.YesBettors) / float64(total) * 100
}

// NoShare returns the no side's share of bettors as a percentage in [0,100].
func (m Market) NoShare() float64 {
	total := m.YesBettors + m.NoBettors
	if total == 0 {
		return 0
	}
	return float64(m.NoBettors) / float64(total) * 100
}
