package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const dexScreenerBaseURL = "https://api.dexscreener.com"

// DexScreenerConfig holds DexScreener API settings. The API is keyless.
type DexScreenerConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// DexScreenerClient fetches token market data from DexScreener. It
// implements analysis.MarketProvider.
type DexScreenerClient struct {
	config         DexScreenerConfig
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewDexScreenerClient creates a DexScreener client.
func NewDexScreenerClient(config DexScreenerConfig, logger *zap.Logger) *DexScreenerClient {
	if config.BaseURL == "" {
		config.BaseURL = dexScreenerBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &DexScreenerClient{
		config:         config,
		httpClient:     newHTTPClient(config.Timeout),
		circuitBreaker: newBreaker("DexScreenerAPI", logger),
		logger:         logger,
	}
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	URL         string `json:"url"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	MarketCap     float64 `json:"marketCap"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

// TokenMarket returns the market snapshot for a token, taken from its most
// liquid trading pair.
func (c *DexScreenerClient) TokenMarket(ctx context.Context, tokenAddress string) (*entities.MarketSnapshot, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}

	var resp dexPairsResponse
	endpoint := "/latest/dex/tokens/" + tokenAddress
	if err := c.get(ctx, "token_pairs", endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch token pairs: %w", err)
	}
	if len(resp.Pairs) == 0 {
		return nil, fmt.Errorf("no trading pairs found for %s", tokenAddress)
	}

	best := bestPairByLiquidity(resp.Pairs)
	snapshot := snapshotFromPair(best)

	c.logger.Info("fetched token market data",
		zap.String("token_address", tokenAddress),
		zap.String("dex_id", snapshot.DexID),
		zap.Float64("liquidity", snapshot.Liquidity))

	return &snapshot, nil
}

// Search finds tokens by free-text query and returns one snapshot per pair,
// ordered as DexScreener returns them.
func (c *DexScreenerClient) Search(ctx context.Context, query string) ([]entities.MarketSnapshot, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	var resp dexPairsResponse
	endpoint := "/latest/dex/search?q=" + url.QueryEscape(query)
	if err := c.get(ctx, "search", endpoint, &resp); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]entities.MarketSnapshot, 0, len(resp.Pairs))
	for _, pair := range resp.Pairs {
		results = append(results, snapshotFromPair(pair))
	}
	return results, nil
}

func bestPairByLiquidity(pairs []dexPair) dexPair {
	best := pairs[0]
	for _, pair := range pairs[1:] {
		if pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}
	return best
}

func snapshotFromPair(pair dexPair) entities.MarketSnapshot {
	priceUSD, _ := strconv.ParseFloat(pair.PriceUSD, 64)
	return entities.MarketSnapshot{
		Address:        pair.BaseToken.Address,
		Symbol:         pair.BaseToken.Symbol,
		Name:           pair.BaseToken.Name,
		ChainID:        pair.ChainID,
		PriceUSD:       priceUSD,
		PriceChange24h: pair.PriceChange.H24,
		Volume24h:      pair.Volume.H24,
		Liquidity:      pair.Liquidity.USD,
		MarketCap:      pair.MarketCap,
		FDV:            pair.FDV,
		PairAddress:    pair.PairAddress,
		DexID:          pair.DexID,
		URL:            pair.URL,
		PairCreatedAt:  pair.PairCreatedAt,
		PriceChange: entities.PriceChangeWindows{
			M5:  pair.PriceChange.M5,
			H1:  pair.PriceChange.H1,
			H6:  pair.PriceChange.H6,
			H24: pair.PriceChange.H24,
		},
		Txns24h: entities.PairTransactions{
			Buys:  pair.Txns.H24.Buys,
			Sells: pair.Txns.H24.Sells,
		},
		VolatilityRisk: volatilityRisk(pair.PriceChange.H24, pair.PriceChange.H6, pair.PriceChange.H1),
	}
}

// volatilityRisk folds recent price swings into a 0-100 score, weighting
// the shorter windows less.
func volatilityRisk(h24, h6, h1 float64) int {
	score := (math.Abs(h24) + math.Abs(h6)*0.5 + math.Abs(h1)*0.3) * 2
	return int(math.Min(100, math.Round(score)))
}

func (c *DexScreenerClient) get(ctx context.Context, operation, endpoint string, result interface{}) error {
	start := time.Now()
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doGetWithRetry(ctx, endpoint, result)
	})
	metrics.ProviderRequestDuration.WithLabelValues("dexscreener", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues("dexscreener", operation).Inc()
	}
	return err
}

func (c *DexScreenerClient) doGetWithRetry(ctx context.Context, endpoint string, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		err := c.doGet(ctx, endpoint, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			break
		}

		c.logger.Warn("DexScreener request failed, will retry",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *DexScreenerClient) doGet(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{status: resp.StatusCode, body: string(body)}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
