package coingecko

import (
	"context"
	"net/http"
	"testing"

	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, apiKey string) (*Client, *httpmock.MockTransport) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)

	transport := httpmock.NewMockTransport()
	client := NewClient(apiKey, "http://coingecko.local/api/v3/", l)
	client.SetHttpClient(&http.Client{Transport: transport})
	return client, transport
}

func Test_CoingeckoClient(t *testing.T) {
	t.Run("Should return exact prices for known coins", func(t *testing.T) {
		client, transport := setup(t, "")
		transport.RegisterResponderWithQuery("GET", "http://coingecko.local/api/v3/simple/price",
			map[string]string{"ids": "internet-computer,unknown", "vs_currencies": "usd"},
			httpmock.NewStringResponder(200, `{"internet-computer":{"usd":4.8312345678912345}}`))

		prices, err := client.GetSimplePrices(context.Background(), []string{"internet-computer", "unknown"}, "usd")
		assert.Nil(t, err)
		assert.Len(t, prices, 1)
		assert.True(t, prices["internet-computer"].Equal(decimal.RequireFromString("4.8312345678912345")))
	})

	t.Run("Should not call the API without ids", func(t *testing.T) {
		client, transport := setup(t, "")
		prices, err := client.GetSimplePrices(context.Background(), nil, "usd")
		assert.Nil(t, err)
		assert.Len(t, prices, 0)
		assert.Equal(t, 0, transport.GetTotalCallCount())
	})

	t.Run("Should send the api key and fail on errors", func(t *testing.T) {
		client, transport := setup(t, "secret")
		transport.RegisterResponder("GET", "=~^http://coingecko.local/api/v3/simple/price",
			func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "secret", req.Header.Get("x-cg-pro-api-key"))
				return httpmock.NewStringResponse(429, `{"error":"rate limited"}`), nil
			})

		_, err := client.GetSimplePrices(context.Background(), []string{"internet-computer"}, "usd")
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("Should fetch coin data", func(t *testing.T) {
		client, transport := setup(t, "")
		transport.RegisterResponder("GET", "=~^http://coingecko.local/api/v3/coins/internet-computer",
			httpmock.NewStringResponder(200, `{"id":"internet-computer","name":"Internet Computer","symbol":"icp"}`))
		transport.RegisterResponder("GET", "=~^http://coingecko.local/api/v3/coins/nope",
			httpmock.NewStringResponder(404, `{}`))

		coin, err := client.GetCoinById(context.Background(), "internet-computer")
		assert.Nil(t, err)
		assert.Equal(t, "icp", coin.Symbol)

		_, err = client.GetCoinById(context.Background(), "nope")
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "coin not found")
	})
}
