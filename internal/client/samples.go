package client

import (
	"time"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// sampleMarkets returns the built-in markets shown when neither the backend
// nor the cache can serve a list. The entries mirror the live A-share markets
// the backend usually carries, with settlement four hours out so the cards
// always render a sensible end time.
func sampleMarkets() []domain.Market {
	endTime := time.Now().Add(4 * time.Hour)
	return []domain.Market{
		{
			ID:          1,
			Question:    "SSE Composite closes above 3450 today",
			Category:    "A-Share",
			Status:      domain.MarketStatusActive,
			TotalVolume: 83700,
			YesOdds:     1.85,
			NoOdds:      2.05,
			YesBettors:  65,
			NoBettors:   35,
			EndTime:     endTime,
		},
		{
			ID:          2,
			Question:    "ChiNext Index closes above 2400 today",
			Category:    "A-Share",
			Status:      domain.MarketStatusActive,
			TotalVolume: 52300,
			YesOdds:     2.25,
			NoOdds:      1.75,
			YesBettors:  45,
			NoBettors:   55,
			EndTime:     endTime,
		},
	}
}
