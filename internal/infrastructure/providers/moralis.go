package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const moralisGatewayURL = "https://solana-gateway.moralis.io"

// solPriceMint is the wrapped SOL mint, used to price the native balance.
const solPriceMint = "So11111111111111111111111111111111111111112"

// MoralisConfig holds Moralis Solana gateway settings.
type MoralisConfig struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Network string        `json:"network"`
	Timeout time.Duration `json:"timeout"`
}

// MoralisClient fetches wallet portfolios from the Moralis Solana gateway.
// It implements analysis.PortfolioProvider.
type MoralisClient struct {
	config         MoralisConfig
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewMoralisClient creates a Moralis gateway client.
func NewMoralisClient(config MoralisConfig, logger *zap.Logger) *MoralisClient {
	if config.BaseURL == "" {
		config.BaseURL = moralisGatewayURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Network == "" {
		config.Network = "mainnet"
	}

	return &MoralisClient{
		config:         config,
		httpClient:     newHTTPClient(config.Timeout),
		circuitBreaker: newBreaker("MoralisAPI", logger),
		logger:         logger,
	}
}

type moralisPortfolioResponse struct {
	NativeBalance struct {
		Lamports string `json:"lamports"`
		Solana   string `json:"solana"`
	} `json:"nativeBalance"`
	Tokens []moralisToken `json:"tokens"`
	NFTs   []moralisNFT   `json:"nfts"`
}

type moralisToken struct {
	AssociatedTokenAddress string `json:"associatedTokenAddress"`
	Mint                   string `json:"mint"`
	Name                   string `json:"name"`
	Symbol                 string `json:"symbol"`
	Amount                 string `json:"amount"`
	AmountRaw              string `json:"amountRaw"`
	Decimals               string `json:"decimals"`
}

type moralisNFT struct {
	Mint   string `json:"mint"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type moralisPriceResponse struct {
	USDPrice float64 `json:"usdPrice"`
}

// Portfolio fetches a wallet's token and NFT holdings and prices each token
// position. Pricing is best-effort per token: a mint without a price keeps
// ValueUSD zero and still counts toward diversification denominators.
func (c *MoralisClient) Portfolio(ctx context.Context, walletAddress string) (*entities.Portfolio, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}

	endpoint := fmt.Sprintf("/account/%s/%s/portfolio", c.config.Network, walletAddress)

	var raw moralisPortfolioResponse
	if err := c.get(ctx, "portfolio", endpoint, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio: %w", err)
	}

	solBalance, _ := strconv.ParseFloat(raw.NativeBalance.Solana, 64)

	tokens := make([]entities.TokenBalance, 0, len(raw.Tokens))
	totalValue := 0.0
	for _, t := range raw.Tokens {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			c.logger.Warn("skipping token with unparseable amount",
				zap.String("mint", t.Mint),
				zap.String("amount", t.Amount))
			continue
		}
		decimals, _ := strconv.Atoi(t.Decimals)

		balance := entities.TokenBalance{
			Mint:     t.Mint,
			Symbol:   t.Symbol,
			Name:     t.Name,
			Amount:   amount,
			Decimals: decimals,
		}

		price, err := c.tokenPrice(ctx, t.Mint)
		if err != nil {
			c.logger.Debug("no price for token, keeping zero value",
				zap.String("mint", t.Mint),
				zap.Error(err))
		} else {
			balance.PriceUSD = price
			amountFloat, _ := amount.Float64()
			balance.ValueUSD = amountFloat * price
		}

		totalValue += balance.ValueUSD
		tokens = append(tokens, balance)
	}

	if solBalance > 0 {
		if price, err := c.tokenPrice(ctx, solPriceMint); err == nil {
			totalValue += solBalance * price
		}
	}

	for i := range tokens {
		if totalValue > 0 {
			tokens[i].Percentage = tokens[i].ValueUSD / totalValue * 100
		}
	}

	nfts := make([]entities.NFTHolding, 0, len(raw.NFTs))
	for _, n := range raw.NFTs {
		nfts = append(nfts, entities.NFTHolding{
			Mint:   n.Mint,
			Name:   n.Name,
			Symbol: n.Symbol,
		})
	}

	portfolio := &entities.Portfolio{
		Address:       walletAddress,
		Tokens:        tokens,
		NFTs:          nfts,
		TotalValueUSD: totalValue,
		SolBalance:    solBalance,
		TokenCount:    len(tokens),
		NFTCount:      len(nfts),
	}

	c.logger.Info("fetched wallet portfolio",
		zap.String("wallet_address", walletAddress),
		zap.Int("tokens", portfolio.TokenCount),
		zap.Int("nfts", portfolio.NFTCount),
		zap.Float64("total_value_usd", totalValue))

	return portfolio, nil
}

func (c *MoralisClient) tokenPrice(ctx context.Context, mint string) (float64, error) {
	endpoint := fmt.Sprintf("/token/%s/%s/price", c.config.Network, mint)
	var resp moralisPriceResponse
	if err := c.get(ctx, "token_price", endpoint, &resp); err != nil {
		return 0, err
	}
	return resp.USDPrice, nil
}

func (c *MoralisClient) get(ctx context.Context, operation, endpoint string, result interface{}) error {
	start := time.Now()
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doGetWithRetry(ctx, endpoint, result)
	})
	metrics.ProviderRequestDuration.WithLabelValues("moralis", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues("moralis", operation).Inc()
	}
	return err
}

func (c *MoralisClient) doGetWithRetry(ctx context.Context, endpoint string, result interface{}) error {
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

		// 4xx responses won't improve on retry
		if !isRetryable(err) {
			break
		}

		c.logger.Warn("Moralis request failed, will retry",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return fmt.Errorf("request failed after retries: %w", lastErr)
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func isRetryable(err error) bool {
	if statusErr, ok := err.(*httpStatusError); ok {
		return statusErr.status >= 500 || statusErr.status == http.StatusTooManyRequests
	}
	return true
}

func (c *MoralisClient) doGet(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)

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
