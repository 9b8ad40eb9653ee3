package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"charts_demo/internal/entity"
	"charts_demo/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DEXScreenerClient defines the interface for interacting with the DEX Screener API.
type DEXScreenerClient interface {
	SearchPairs(ctx context.Context, query string) ([]entity.PairData, error)
	GetLatestBoostedTokens(ctx context.Context) ([]entity.BoostedToken, error)
	GetTokenPairs(ctx context.Context, dexscreenerChainID string, tokenAddresses []string) ([]entity.PairData, error)
}

// dexScreenerClientImpl is the implementation of DEXScreenerClient.
type dexScreenerClientImpl struct {
	client              *fasthttp.Client
	baseURL             string
	timeout             time.Duration
	logger              *zap.Logger
	limiter             *rate.Limiter
	maxTokensPerRequest int
}

// NewDEXScreenerClient creates a new instance of dexScreenerClientImpl.
// requestsPerMinute bounds the outbound call rate; DEX Screener enforces
// 300 req/min on the endpoints used here.
func NewDEXScreenerClient(baseURL string, timeout time.Duration, logger *zap.Logger, requestsPerMinute int, maxTokensPerRequest int) DEXScreenerClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 300
	}
	return &dexScreenerClientImpl{
		client:              &fasthttp.Client{},
		baseURL:             strings.TrimRight(baseURL, "/"),
		timeout:             timeout,
		logger:              logger.Named("DEXScreenerClient"),
		limiter:             rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute/10+1),
		maxTokensPerRequest: maxTokensPerRequest,
	}
}

// SearchPairs implements the /latest/dex/search endpoint. The response is a
// wrapper object with the pairs nested under a "pairs" key.
func (c *dexScreenerClientImpl) SearchPairs(ctx context.Context, query string) ([]entity.PairData, error) {
	requestURL := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))

	rawBody, err := c.doGet(ctx, requestURL, "search")
	if err != nil {
		return nil, err
	}

	var wrapper entity.DEXSearchResponse
	if err := json.Unmarshal(rawBody, &wrapper); err != nil {
		c.logger.Error("Failed to unmarshal DEX Screener search response",
			zap.String("url", requestURL),
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal search response from %s: %w", requestURL, err)
	}

	c.logger.Debug("DEX Screener search completed",
		zap.String("query", query),
		zap.Int("pairCount", len(wrapper.Pairs)))
	return wrapper.Pairs, nil
}

// GetLatestBoostedTokens implements the /token-boosts/top/v1 endpoint,
// which returns a direct array of boosted token entries.
func (c *dexScreenerClientImpl) GetLatestBoostedTokens(ctx context.Context) ([]entity.BoostedToken, error) {
	requestURL := fmt.Sprintf("%s/token-boosts/top/v1", c.baseURL)

	rawBody, err := c.doGet(ctx, requestURL, "boosts")
	if err != nil {
		return nil, err
	}

	var boosted []entity.BoostedToken
	if err := json.Unmarshal(rawBody, &boosted); err != nil {
		c.logger.Error("Failed to unmarshal DEX Screener boosted tokens response",
			zap.String("url", requestURL),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal boosted tokens response from %s: %w", requestURL, err)
	}

	c.logger.Debug("DEX Screener boosted tokens fetched", zap.Int("count", len(boosted)))
	return boosted, nil
}

// GetTokenPairs implements the /tokens/v1/{chain}/{addresses} endpoint.
func (c *dexScreenerClientImpl) GetTokenPairs(ctx context.Context, dexscreenerChainID string, tokenAddresses []string) ([]entity.PairData, error) {
	if len(tokenAddresses) == 0 {
		return nil, fmt.Errorf("tokenAddresses cannot be empty")
	}
	if len(tokenAddresses) > c.maxTokensPerRequest {
		c.logger.Warn("Number of token addresses exceeds maxTokensPerRequest",
			zap.Int("requestedCount", len(tokenAddresses)),
			zap.Int("maxAllowed", c.maxTokensPerRequest))
		return nil, fmt.Errorf("number of token addresses (%d) exceeds max tokens per request (%d)", len(tokenAddresses), c.maxTokensPerRequest)
	}

	addresses := strings.Join(tokenAddresses, ",")
	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, dexscreenerChainID, addresses)

	rawBody, err := c.doGet(ctx, requestURL, "tokens")
	if err != nil {
		return nil, err
	}

	var pairs []entity.PairData
	if err := json.Unmarshal(rawBody, &pairs); err != nil {
		c.logger.Error("Failed to unmarshal DEX Screener token pairs response",
			zap.String("url", requestURL),
			zap.String("dexscreenerChainID", dexscreenerChainID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal token pairs response from %s: %w", requestURL, err)
	}

	c.logger.Debug("DEX Screener token pairs fetched",
		zap.String("dexscreenerChainID", dexscreenerChainID),
		zap.Int("pairCount", len(pairs)))
	return pairs, nil
}

// doGet performs a rate-limited GET request and returns the raw body on 200.
func (c *dexScreenerClientImpl) doGet(ctx context.Context, requestURL string, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted for %s: %w", requestURL, err)
	}

	c.logger.Debug("Requesting DEX Screener", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	started := time.Now()
	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			metrics.ObserveUpstreamRequest(endpoint, "transport_error", time.Since(started))
			c.logger.Error("Failed to execute request to DEX Screener", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			metrics.ObserveUpstreamRequest(endpoint, "transport_error", time.Since(started))
			c.logger.Error("Failed to execute request to DEX Screener (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.ObserveUpstreamRequest(endpoint, fmt.Sprintf("http_%d", resp.StatusCode()), time.Since(started))
		c.logger.Error("DEX Screener API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("DEX Screener API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	metrics.ObserveUpstreamRequest(endpoint, "ok", time.Since(started))

	// fasthttp reuses response buffers after release, copy the body out.
	body := make([]byte, len(rawBody))
	copy(body, rawBody)
	return body, nil
}
