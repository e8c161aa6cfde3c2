// Package coingecko is a minimal client for the public CoinGecko markets API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tslaglobal/backend/internal/model"

	"golang.org/x/time/rate"
)

// Client fetches market listings. Outbound calls are paced by a limiter
// because the public API throttles aggressively.
type Client struct {
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client. minGap is the minimum spacing between two
// requests, zero disables pacing.
func NewClient(apiURL string, timeout, minGap time.Duration) *Client {
	limit := rate.Inf
	if minGap > 0 {
		limit = rate.Every(minGap)
	}
	return &Client{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coingecko: unexpected status %d: %s", e.StatusCode, e.Body)
}

// FetchMarkets returns the top perPage coins by market cap in USD with 7d sparklines
func (c *Client) FetchMarkets(ctx context.Context, perPage int) ([]model.CoinData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("coingecko: rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", "1")
	q.Set("sparkline", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/coins/markets?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var coins []model.CoinData
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return coins, nil
}
