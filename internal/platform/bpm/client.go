// Package bpm implements the REST and WebSocket clients for the BPM
// prediction-market backend.
package bpm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// Client is the REST client for the BPM backend, which serves market listings
// and accepts bet submissions.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client rooted at baseURL, e.g.
// "http://localhost:8000". timeout bounds every request; zero falls back to
// 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListMarkets returns markets in the given status. A well-formed empty array
// is returned as an empty slice, not an error; malformed responses and
// entries that fail validation are rejected.
func (c *Client) ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("status", string(status))

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("bpm: list markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("bpm: decode markets: %w", err)
	}
	// json.Unmarshal accepts a literal null without error; only an actual
	// array (empty included) counts as a valid market list.
	if apiMarkets == nil {
		return nil, fmt.Errorf("bpm: decode markets: expected array, got null")
	}

	markets := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		if err := apiMarkets[i].Validate(); err != nil {
			return nil, fmt.Errorf("bpm: invalid market payload: %w", err)
		}
		markets = append(markets, apiMarkets[i].ToDomain())
	}
	return markets, nil
}

// PlaceBet posts a bet to the backend. Transport failures wrap
// domain.ErrBackendDown so callers can distinguish "never reached the
// backend" from "backend said no"; the latter arrives in the receipt with
// Success false and no error.
func (c *Client) PlaceBet(ctx context.Context, req domain.BetRequest) (domain.BetReceipt, error) {
	payload, err := json.Marshal(apiBetRequest{
		MarketID: req.MarketID,
		Amount:   req.Amount,
		IsYes:    req.IsYes,
	})
	if err != nil {
		return domain.BetReceipt{}, fmt.Errorf("bpm: marshal bet: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bet", bytes.NewReader(payload))
	if err != nil {
		return domain.BetReceipt{}, fmt.Errorf("bpm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.BetReceipt{}, fmt.Errorf("bpm: place bet: %w: %v", domain.ErrBackendDown, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.BetReceipt{}, fmt.Errorf("bpm: read bet response: %w: %v", domain.ErrBackendDown, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return domain.BetReceipt{}, fmt.Errorf("bpm: place bet: %w", err)
	}

	var result apiBetResult
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.BetReceipt{}, fmt.Errorf("bpm: decode bet response: %w", err)
	}
	return result.toDomain(), nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the backend.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendDown, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// Compile-time interface checks.
var (
	_ domain.MarketSource = (*Client)(nil)
	_ domain.BetPlacer    = (*Client)(nil)
)
