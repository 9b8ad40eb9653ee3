package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestClient creates a DEXScreenerClient pointed at a test server.
func setupTestClient(handler http.Handler) (DEXScreenerClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	c := NewDEXScreenerClient(server.URL, 2*time.Second, zap.NewNop(), 0, 30)
	return c, server
}

func TestSearchPairs(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/latest/dex/search", r.URL.Path)
			assert.Equal(t, "ETH", r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"schemaVersion": "1.0.0",
				"pairs": [
					{"pairAddress": "0xabc", "chainId": "ethereum", "baseToken": {"symbol": "WETH"}, "quoteToken": {"symbol": "USDC"}, "volume": {"h24": 1234.5}},
					{"pairAddress": "0xdef", "chainId": "ethereum", "baseToken": {"symbol": "WETH"}, "quoteToken": {"symbol": "USDT"}, "volume": {"h24": null}}
				]
			}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		pairs, err := c.SearchPairs(context.Background(), "ETH")

		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "0xabc", pairs[0].PairAddress)
		assert.Equal(t, 1234.5, pairs[0].Volume.H24)
		// null volume field must read as zero
		assert.Equal(t, 0.0, pairs[1].Volume.H24)
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "rate limited"}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		pairs, err := c.SearchPairs(context.Background(), "ETH")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
		assert.Nil(t, pairs)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		pairs, err := c.SearchPairs(context.Background(), "ETH")

		assert.Error(t, err)
		assert.Nil(t, pairs)
	})
}

func TestGetLatestBoostedTokens(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/token-boosts/top/v1", r.URL.Path)
			_, _ = w.Write([]byte(`[
				{"chainId": "solana", "tokenAddress": "So1111", "amount": 500},
				{"chainId": "base", "tokenAddress": "0xbase", "amount": 100}
			]`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		boosted, err := c.GetLatestBoostedTokens(context.Background())

		require.NoError(t, err)
		require.Len(t, boosted, 2)
		assert.Equal(t, "solana", boosted[0].ChainID)
		assert.Equal(t, "So1111", boosted[0].TokenAddress)
	})

	t.Run("ServerError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		boosted, err := c.GetLatestBoostedTokens(context.Background())

		assert.Error(t, err)
		assert.Nil(t, boosted)
	})
}

func TestGetTokenPairs(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/tokens/v1/ethereum/0xaaa,0xbbb", r.URL.Path)
			_, _ = w.Write([]byte(`[
				{"pairAddress": "0x1", "baseToken": {"address": "0xaaa", "symbol": "AAA"}, "volume": {"h24": 50000}},
				{"pairAddress": "0x2", "baseToken": {"address": "0xbbb", "symbol": "BBB"}, "volume": {"h24": 20000}}
			]`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		pairs, err := c.GetTokenPairs(context.Background(), "ethereum", []string{"0xaaa", "0xbbb"})

		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "0x1", pairs[0].PairAddress)
	})

	t.Run("EmptyAddresses", func(t *testing.T) {
		c, server := setupTestClient(http.NotFoundHandler())
		defer server.Close()

		pairs, err := c.GetTokenPairs(context.Background(), "ethereum", nil)

		assert.Error(t, err)
		assert.Nil(t, pairs)
	})

	t.Run("TooManyAddresses", func(t *testing.T) {
		c, server := setupTestClient(http.NotFoundHandler())
		defer server.Close()

		addresses := make([]string, 31)
		for i := range addresses {
			addresses[i] = "0x0"
		}
		pairs, err := c.GetTokenPairs(context.Background(), "ethereum", addresses)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds max tokens per request")
		assert.Nil(t, pairs)
	})
}

func TestDoGetContextDeadline(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"pairs": []}`))
	})

	c, server := setupTestClient(handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	pairs, err := c.SearchPairs(ctx, "ETH")

	assert.Error(t, err)
	assert.Nil(t, pairs)
}
