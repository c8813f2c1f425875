package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// listTTL bounds how stale a cached market list may get before the client
// falls through to the built-in samples.
const listTTL = 10 * time.Minute

const listKey = "bpm:markets:active"

// MarketCache implements domain.MarketCache with a single JSON-serialized
// entry holding the last market list successfully fetched from the backend.
// It is a fallback tier, not a system of record: the entry expires and is
// rewritten wholesale on every successful load.
type MarketCache struct {
	rdb *redis.Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{rdb: c.Underlying()}
}

// SetList stores the market list with the fallback TTL.
func (mc *MarketCache) SetList(ctx context.Context, markets []domain.Market) error {
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("redis: marshal market list: %w", err)
	}
	if err := mc.rdb.Set(ctx, listKey, data, listTTL).Err(); err != nil {
		return fmt.Errorf("redis: set market list: %w", err)
	}
	return nil
}

// GetList retrieves the cached market list. It returns domain.ErrNotFound
// when the entry does not exist or has expired.
func (mc *MarketCache) GetList(ctx context.Context) ([]domain.Market, error) {
	data, err := mc.rdb.Get(ctx, listKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get market list: %w", err)
	}

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("redis: unmarshal market list: %w", err)
	}
	return markets, nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
