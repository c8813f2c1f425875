package bpm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// flexTime unmarshals from an RFC 3339 string or a Unix timestamp (seconds or
// milliseconds) so market end times work regardless of how the backend
// serializes them.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid end_time %q: %w", s, err)
		}
		f.Time = t
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid end_time %s", string(data))
	}
	// Heuristic: values beyond the year 33658 in seconds are milliseconds.
	if n > 1e12 {
		f.Time = time.UnixMilli(n)
	} else {
		f.Time = time.Unix(n, 0)
	}
	return nil
}

// APIMarket represents a market as returned by the backend.
type APIMarket struct {
	ID          int64    `json:"id"`
	Question    string   `json:"question"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	TotalVolume float64  `json:"total_volume"`
	YesOdds     float64  `json:"yes_odds"`
	NoOdds      float64  `json:"no_odds"`
	YesBettors  int      `json:"yes_bettors"`
	NoBettors   int      `json:"no_bettors"`
	EndTime     flexTime `json:"end_time"`
}

// Validate rejects payloads the renderer and betting flow cannot safely use.
func (m *APIMarket) Validate() error {
	var errs []string
	if m.ID <= 0 {
		errs = append(errs, fmt.Sprintf("id must be positive, got %d", m.ID))
	}
	if strings.TrimSpace(m.Question) == "" {
		errs = append(errs, "question must not be empty")
	}
	if m.YesOdds <= 1 || m.NoOdds <= 1 {
		errs = append(errs, fmt.Sprintf("odds must exceed 1, got yes=%v no=%v", m.YesOdds, m.NoOdds))
	}
	if m.YesBettors < 0 || m.NoBettors < 0 {
		errs = append(errs, "bettor counts must not be negative")
	}
	if m.TotalVolume < 0 {
		errs = append(errs, "total_volume must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("market %d: %s", m.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ToDomain converts the wire market to a domain.Market.
func (m *APIMarket) ToDomain() domain.Market {
	return domain.Market{
		ID:          m.ID,
		Question:    m.Question,
		Category:    m.Category,
		Status:      domain.MarketStatus(m.Status),
		TotalVolume: m.TotalVolume,
		YesOdds:     m.YesOdds,
		NoOdds:      m.NoOdds,
		YesBettors:  m.YesBettors,
		NoBettors:   m.NoBettors,
		EndTime:     m.EndTime.Time,
	}
}

// apiBetRequest is the wire form of a bet submission.
type apiBetRequest struct {
	MarketID int64   `json:"market_id"`
	Amount   float64 `json:"amount"`
	IsYes    bool    `json:"is_yes"`
}

// apiBetResult is the backend's answer to a bet submission.
type apiBetResult struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Message         string `json:"message,omitempty"`
}

func (r *apiBetResult) toDomain() domain.BetReceipt {
	return domain.BetReceipt{
		Success:         r.Success,
		TransactionHash: r.TransactionHash,
		Message:         r.Message,
	}
}
