package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultBaseUrl = "https://api.coingecko.com/api/v3"

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *zap.Logger
}

type CoinData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

func NewClient(apiKey string, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseUrl
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	for k, v := range query {
		q.Add(k, v)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	c.logger.Sugar().Debugw("Making CoinGecko request",
		zap.String("url", req.URL.String()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// GetSimplePrices returns the price of every coin id in the vs currency.
// Coins unknown to CoinGecko are absent from the result.
func (c *Client) GetSimplePrices(ctx context.Context, ids []string, vs string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(ids) == 0 {
		return prices, nil
	}
	body, status, err := c.get(ctx, "/simple/price", map[string]string{
		"ids":           strings.Join(ids, ","),
		"vs_currencies": vs,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", status, string(body))
	}

	// numbers are decoded as json.Number to keep their exact decimal representation
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var raw map[string]map[string]json.Number
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for id, byCurrency := range raw {
		value, ok := byCurrency[vs]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(value.String())
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", id, err)
		}
		prices[id] = price
	}
	return prices, nil
}

// GetCoinById fetches the name and symbol of a coin.
func (c *Client) GetCoinById(ctx context.Context, id string) (*CoinData, error) {
	body, status, err := c.get(ctx, "/coins/"+id, map[string]string{
		"localization":   "false",
		"tickers":        "false",
		"market_data":    "false",
		"community_data": "false",
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("coin not found: %s", id)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", status, string(body))
	}

	var coinData CoinData
	if err := json.Unmarshal(body, &coinData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &coinData, nil
}
