package providers

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
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const heliusMainnetURL = "https://mainnet.helius-rpc.com"

// HeliusConfig holds Helius RPC settings.
type HeliusConfig struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// HeliusClient fetches SPL token holder data over the Helius JSON-RPC
// endpoint. It implements analysis.HolderProvider.
type HeliusClient struct {
	config         HeliusConfig
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewHeliusClient creates a Helius RPC client.
func NewHeliusClient(config HeliusConfig, logger *zap.Logger) *HeliusClient {
	if config.BaseURL == "" {
		config.BaseURL = heliusMainnetURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &HeliusClient{
		config:         config,
		httpClient:     newHTTPClient(config.Timeout),
		circuitBreaker: newBreaker("HeliusRPC", logger),
		logger:         logger,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type tokenAccountEntry struct {
	Address  string  `json:"address"`
	Amount   string  `json:"amount"`
	Decimals int     `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

type largestAccountsResult struct {
	Value []tokenAccountEntry `json:"value"`
}

type tokenSupplyResult struct {
	Value struct {
		Amount   string  `json:"amount"`
		Decimals int     `json:"decimals"`
		UIAmount float64 `json:"uiAmount"`
	} `json:"value"`
}

type accountInfoResult struct {
	Value *struct {
		Data struct {
			Parsed struct {
				Info struct {
					Owner string `json:"owner"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"value"`
}

type dasAssetResult struct {
	Content struct {
		Metadata struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
	} `json:"content"`
}

// TokenHolders fetches the largest token accounts, resolves each account's
// owner and normalizes the result. Accounts whose owner cannot be resolved
// are skipped rather than failing the whole snapshot.
func (c *HeliusClient) TokenHolders(ctx context.Context, tokenAddress string, topN int) (*entities.TokenHolders, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	if topN <= 0 {
		topN = 10
	}

	var largest largestAccountsResult
	if err := c.rpcCall(ctx, "getTokenLargestAccounts", []interface{}{tokenAddress}, &largest); err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}
	accounts := largest.Value
	if len(accounts) > topN {
		accounts = accounts[:topN]
	}

	var supply tokenSupplyResult
	if err := c.rpcCall(ctx, "getTokenSupply", []interface{}{tokenAddress}, &supply); err != nil {
		return nil, fmt.Errorf("failed to get token supply: %w", err)
	}
	totalSupply := supply.Value.UIAmount

	holders := make([]entities.Holding, 0, len(accounts))
	for i, account := range accounts {
		owner, err := c.accountOwner(ctx, account.Address)
		if err != nil {
			c.logger.Warn("could not resolve token account owner",
				zap.String("token_account", account.Address),
				zap.Int("rank", i+1),
				zap.Error(err))
			continue
		}

		percentage := 0.0
		if totalSupply > 0 {
			percentage = account.UIAmount / totalSupply * 100
		}

		holders = append(holders, entities.Holding{
			Rank:         i + 1,
			TokenAccount: account.Address,
			Owner:        owner,
			Balance:      decimal.NewFromFloat(account.UIAmount),
			Percentage:   percentage,
			AccountType:  classifyOwner(owner),
		})
	}

	result := &entities.TokenHolders{
		TokenAddress: tokenAddress,
		TokenName:    "Unknown",
		TokenSymbol:  "Unknown",
		TotalSupply:  totalSupply,
		Holders:      holders,
	}

	// Metadata is best-effort; not every mint is indexed by DAS.
	if name, symbol, err := c.assetMetadata(ctx, tokenAddress); err == nil {
		if name != "" {
			result.TokenName = name
		}
		if symbol != "" {
			result.TokenSymbol = symbol
		}
	}

	if raw, err := json.Marshal(holders); err == nil {
		result.Raw = raw
	}

	c.logger.Info("fetched token holders",
		zap.String("token_address", tokenAddress),
		zap.Int("holders", len(holders)),
		zap.Float64("total_supply", totalSupply))

	return result, nil
}

func (c *HeliusClient) accountOwner(ctx context.Context, account string) (string, error) {
	var info accountInfoResult
	params := []interface{}{account, map[string]string{"encoding": "jsonParsed"}}
	if err := c.rpcCall(ctx, "getAccountInfo", params, &info); err != nil {
		return "", err
	}
	if info.Value == nil || info.Value.Data.Parsed.Info.Owner == "" {
		return "", fmt.Errorf("account %s has no parsed owner", account)
	}
	return info.Value.Data.Parsed.Info.Owner, nil
}

func (c *HeliusClient) assetMetadata(ctx context.Context, tokenAddress string) (string, string, error) {
	var asset dasAssetResult
	params := []interface{}{map[string]string{"id": tokenAddress}}
	if err := c.rpcCall(ctx, "getAsset", params, &asset); err != nil {
		return "", "", err
	}
	return asset.Content.Metadata.Name, asset.Content.Metadata.Symbol, nil
}

// classifyOwner labels a holder account by well-known owner address
// prefixes. Unrecognized owners stay Individual/Unknown.
func classifyOwner(owner string) string {
	switch {
	case strings.HasPrefix(owner, "5Q544fK"):
		return "Likely Exchange (Raydium/Orca Pool)"
	case strings.HasPrefix(owner, "5hpfC"):
		return "Likely Liquidity Pool"
	case strings.HasPrefix(owner, "F8Fq"):
		return "Likely Exchange Wallet"
	case strings.HasPrefix(owner, "8voV"):
		return "Likely Liquidity Pool"
	default:
		return "Individual/Unknown"
	}
}

func (c *HeliusClient) rpcCall(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doRPCWithRetry(ctx, method, params, result)
	})
	metrics.ProviderRequestDuration.WithLabelValues("helius", method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues("helius", method).Inc()
	}
	return err
}

func (c *HeliusClient) doRPCWithRetry(ctx context.Context, method string, params []interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		err := c.doRPC(ctx, method, params, result)
		if err == nil {
			return nil
		}
		lastErr = err

		c.logger.Warn("Helius RPC request failed, will retry",
			zap.String("method", method),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *HeliusClient) doRPC(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.BaseURL + "/?api-key=" + c.config.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}
	return nil
}
