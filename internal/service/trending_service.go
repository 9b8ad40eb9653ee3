package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"charts_demo/internal/client"
	"charts_demo/internal/config"
	"charts_demo/internal/entity"
	"charts_demo/internal/utils"
	"charts_demo/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoTrendingPairs is returned when every aggregation strategy came back
// empty. Callers must surface this as an error, never as an empty success.
var ErrNoTrendingPairs = errors.New("failed to fetch trending charts from all strategies")

// TrendingService produces a bounded, deduplicated, ranked list of pairs for display.
type TrendingService interface {
	GetTrendingCharts(ctx context.Context) ([]entity.PairData, error)
}

type trendingServiceImpl struct {
	logger            *zap.Logger
	cfg               *config.Config
	dexscreenerClient client.DEXScreenerClient
	stablecoinSymbols map[string]struct{}
}

// NewTrendingService creates a new instance of TrendingService.
func NewTrendingService(logger *zap.Logger, cfg *config.Config, dexscreenerClient client.DEXScreenerClient) TrendingService {
	stablecoins := make(map[string]struct{}, len(cfg.Trending.StablecoinSymbols))
	for _, sym := range cfg.Trending.StablecoinSymbols {
		stablecoins[strings.ToUpper(sym)] = struct{}{}
	}

	return &trendingServiceImpl{
		logger:            logger.Named("TrendingService"),
		cfg:               cfg,
		dexscreenerClient: dexscreenerClient,
		stablecoinSymbols: stablecoins,
	}
}

// GetTrendingCharts tries the boosted-token strategy first and falls back to
// the symbol-search strategy. Individual upstream failures are logged and
// treated as empty results; only an empty pool after every strategy is an error.
func (s *trendingServiceImpl) GetTrendingCharts(ctx context.Context) ([]entity.PairData, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Trending.GlobalTimeoutMillis)*time.Millisecond)
	defer cancel()

	strategies := []struct {
		name string
		run  func(context.Context) []entity.PairData
	}{
		{"boosted", s.boostedCandidates},
		{"search", s.searchCandidates},
	}

	for _, strategy := range strategies {
		candidates := strategy.run(ctx)
		pool := dedupByPairAddress(candidates)

		if len(pool) == 0 {
			s.logger.Warn("Trending strategy yielded no candidates", zap.String("strategy", strategy.name))
			continue
		}

		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Volume.H24 > pool[j].Volume.H24
		})

		if len(pool) > s.cfg.Trending.OutputSize {
			pool = pool[:s.cfg.Trending.OutputSize]
		}

		s.logger.Info("Trending aggregation completed",
			zap.String("strategy", strategy.name),
			zap.Int("candidates", len(candidates)),
			zap.Int("returned", len(pool)))
		metrics.CountTrendingAggregation(strategy.name)
		return pool, nil
	}

	metrics.CountTrendingAggregation("none")
	return nil, ErrNoTrendingPairs
}

// boostedCandidates resolves the top boosted tokens into concrete pairs,
// keeping the highest-24h-volume pair per boosted token and dropping pairs
// at or below the minimum volume threshold.
func (s *trendingServiceImpl) boostedCandidates(ctx context.Context) []entity.PairData {
	boosted, err := s.dexscreenerClient.GetLatestBoostedTokens(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch boosted tokens, skipping boosted strategy", zap.Error(err))
		return nil
	}
	if len(boosted) > s.cfg.Trending.MaxBoostedTokens {
		boosted = boosted[:s.cfg.Trending.MaxBoostedTokens]
	}

	// Group token addresses by chain so they can be batch-resolved.
	addressesByChain := make(map[string][]string)
	for _, token := range boosted {
		if token.ChainID == "" || token.TokenAddress == "" {
			continue
		}
		addressesByChain[token.ChainID] = append(addressesByChain[token.ChainID], token.TokenAddress)
	}

	var mu sync.Mutex
	bestPairByToken := make(map[string]entity.PairData) // key: chainId + "_" + lowercased token address

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Trending.MaxConcurrentQueries)

	for chainID, addresses := range addressesByChain {
		for _, batch := range utils.BatchStrings(addresses, s.cfg.DEXScreener.MaxTokensPerRequest) {
			chainID, batch := chainID, batch
			g.Go(func() error {
				pairs, err := s.dexscreenerClient.GetTokenPairs(gctx, chainID, batch)
				if err != nil {
					// Soft failure: one unresolved batch must not abort the aggregation.
					s.logger.Warn("Failed to resolve boosted token batch",
						zap.String("chainId", chainID),
						zap.Int("batchSize", len(batch)),
						zap.Error(err))
					return nil
				}

				mu.Lock()
				defer mu.Unlock()
				for _, pair := range pairs {
					key := chainID + "_" + strings.ToLower(pair.BaseToken.Address)
					current, ok := bestPairByToken[key]
					if !ok || pair.Volume.H24 > current.Volume.H24 {
						bestPairByToken[key] = pair
					}
				}
				return nil
			})
		}
	}
	_ = g.Wait() // goroutines swallow their own errors

	// Re-walk the boosted listing so the accumulation order stays deterministic.
	candidates := make([]entity.PairData, 0, len(boosted))
	for _, token := range boosted {
		key := token.ChainID + "_" + strings.ToLower(token.TokenAddress)
		pair, ok := bestPairByToken[key]
		if !ok {
			continue
		}
		if pair.Volume.H24 <= s.cfg.Trending.MinVolume24h {
			continue
		}
		candidates = append(candidates, pair)
	}
	return candidates
}

// searchCandidates iterates the configured symbol list and collects a capped
// number of pairs per symbol, preferring stablecoin-quoted pairs when any
// exist for that symbol.
func (s *trendingServiceImpl) searchCandidates(ctx context.Context) []entity.PairData {
	symbols := s.cfg.Trending.SearchSymbols
	resultsBySymbol := make([][]entity.PairData, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Trending.MaxConcurrentQueries)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			pairs, err := s.dexscreenerClient.SearchPairs(gctx, symbol)
			if err != nil {
				s.logger.Warn("Failed to search pairs for symbol",
					zap.String("symbol", symbol),
					zap.Error(err))
				return nil
			}
			resultsBySymbol[i] = s.selectPairsForSymbol(pairs)
			return nil
		})
	}
	_ = g.Wait()

	var candidates []entity.PairData
	for _, pairs := range resultsBySymbol {
		candidates = append(candidates, pairs...)
	}
	return candidates
}

// selectPairsForSymbol picks up to pairsPerSymbol pairs from one search
// result. If any stablecoin-quoted pairs exist they are preferred, otherwise
// any pair is accepted.
func (s *trendingServiceImpl) selectPairsForSymbol(pairs []entity.PairData) []entity.PairData {
	limit := s.cfg.Trending.PairsPerSymbol

	var preferred []entity.PairData
	for _, pair := range pairs {
		if _, ok := s.stablecoinSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; ok {
			preferred = append(preferred, pair)
			if len(preferred) == limit {
				break
			}
		}
	}
	if len(preferred) > 0 {
		return preferred
	}

	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// dedupByPairAddress removes duplicate candidates by pairAddress, keeping the
// first occurrence. A candidate without an address never enters the seen set
// and is treated as always unique.
func dedupByPairAddress(pairs []entity.PairData) []entity.PairData {
	seen := make(map[string]struct{}, len(pairs))
	unique := make([]entity.PairData, 0, len(pairs))
	for _, pair := range pairs {
		if pair.PairAddress != "" {
			if _, dup := seen[pair.PairAddress]; dup {
				continue
			}
			seen[pair.PairAddress] = struct{}{}
		}
		unique = append(unique, pair)
	}
	return unique
}
