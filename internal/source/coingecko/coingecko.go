// Package coingecko implements the price source against the CoinGecko API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptoalert/internal/core"
	"github.com/shopspring/decimal"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"
)

// CoinGecko fetches simple USD quotes for the whole supported set in one
// request.
type CoinGecko struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	currencies core.CurrencySet
}

// New creates a new CoinGecko price source
func New(apiKey string, currencies core.CurrencySet) *CoinGecko {
	return &CoinGecko{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		currencies: currencies,
	}
}

// NewWithBaseURL creates a CoinGecko source with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, currencies core.CurrencySet) *CoinGecko {
	c := New(apiKey, currencies)
	c.baseURL = url
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

// FetchAll requests quotes for every supported currency and maps them back to
// symbols. Coins the provider omits are absent from the result.
func (c *CoinGecko) FetchAll(ctx context.Context) (map[string]decimal.Decimal, error) {
	ids := strings.Join(c.currencies.ProviderIDs(), ",")
	reqURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(ids))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrSourceUnavailable,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrSourceUnavailable,
			fmt.Errorf("decoding response: %w", err))
	}

	prices := make(map[string]decimal.Decimal)
	for coinID, fields := range result {
		symbol, ok := c.currencies.SymbolForID(coinID)
		if !ok {
			continue
		}
		usd, ok := fields["usd"]
		if !ok {
			continue
		}
		prices[symbol] = usd
	}

	return prices, nil
}
