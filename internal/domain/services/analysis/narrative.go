package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/risk"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/ai"
	"go.uber.org/zap"
)

// Narrator turns a structured risk assessment into prose via an LLM
// provider. The numeric assessment never depends on it: callers substitute
// FallbackNarrative / FallbackWalletNarrative when the provider fails.
type Narrator struct {
	provider ai.Provider
	logger   *zap.Logger
}

// NewNarrator creates a narrator backed by the given provider.
func NewNarrator(provider ai.Provider, logger *zap.Logger) *Narrator {
	return &Narrator{provider: provider, logger: logger}
}

// TokenNarrative produces a prose risk analysis for a token assessment.
func (n *Narrator) TokenNarrative(ctx context.Context, holders *entities.TokenHolders, assessment entities.RiskAssessment, concentration entities.ConcentrationMetrics) (string, error) {
	resp, err := n.provider.Complete(ctx, &ai.CompletionRequest{
		Prompt: buildTokenPrompt(holders, assessment, concentration),
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// WalletNarrative produces a prose portfolio analysis for a wallet
// assessment.
func (n *Narrator) WalletNarrative(ctx context.Context, portfolio *entities.Portfolio, assessment entities.WalletAssessment) (string, error) {
	resp, err := n.provider.Complete(ctx, &ai.CompletionRequest{
		Prompt: buildWalletPrompt(portfolio, assessment),
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// FallbackNarrative is the deterministic substitute used when the narrative
// provider is unavailable.
func FallbackNarrative(assessment entities.RiskAssessment) string {
	return fmt.Sprintf("Risk analysis completed with %s risk level (%d/100). %s",
		assessment.Level, assessment.Score, strings.Join(assessment.Factors, ". "))
}

// FallbackWalletNarrative is the wallet-variant deterministic substitute.
func FallbackWalletNarrative(assessment entities.WalletAssessment) string {
	return fmt.Sprintf("Portfolio analysis completed with %s risk level (%d/100). %s",
		assessment.Level, assessment.Score, strings.Join(assessment.Factors, ". "))
}

func buildTokenPrompt(holders *entities.TokenHolders, assessment entities.RiskAssessment, concentration entities.ConcentrationMetrics) string {
	tokenInfo := "Unknown (Unknown)"
	totalSupply := "Unknown"
	var holderList []entities.Holding
	if holders != nil {
		tokenInfo = fmt.Sprintf("%s (%s)", orUnknown(holders.TokenName), orUnknown(holders.TokenSymbol))
		if holders.TotalSupply > 0 {
			totalSupply = fmt.Sprintf("%.0f", holders.TotalSupply)
		}
		holderList = holders.Holders
	}

	var exchangeCount int
	for _, h := range holderList {
		accountType := strings.ToLower(h.AccountType)
		if strings.Contains(accountType, "exchange") || strings.Contains(accountType, "pool") {
			exchangeCount++
		}
	}

	var breakdown strings.Builder
	for i, h := range holderList {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&breakdown, "%d. %.2f%% - %s (%s)\n",
			i+1, h.Percentage, orUnknown(h.AccountType), orUnknown(h.Owner))
	}

	return fmt.Sprintf(`You are an expert cryptocurrency risk analyst specializing in Solana tokens. Analyze this token's holder distribution and provide a professional risk assessment.

TOKEN: %s
TOTAL SUPPLY: %s

HOLDER CONCENTRATION:
- Top 3 holders control: %.2f%%
- Top 5 holders control: %.2f%%
- Top 10 holders control: %.2f%%
- Exchange/Pool addresses: %d out of top 10

TOP HOLDERS BREAKDOWN:
%s
PRELIMINARY RISK ASSESSMENT:
- Risk Level: %s
- Risk Score: %d/100
- Key Factors: %s

Provide a detailed professional analysis covering:

1. **Holder Distribution Analysis**: Evaluate the concentration levels and what they indicate about token centralization
2. **Red Flags & Warning Signs**: Identify any suspicious patterns, whale dominance, or manipulation risks
3. **Liquidity Assessment**: Analyze the presence of exchange/pool addresses and their implications
4. **Market Manipulation Risk**: Assess the potential for price manipulation based on holder concentration
5. **Investment Recommendation**: Clear guidance on risk level and precautions investors should take

Format your response in clear sections with actionable insights. Be direct and specific. Limit to 400-600 words.`,
		tokenInfo, totalSupply,
		concentration.Top3, concentration.Top5, concentration.Top10,
		exchangeCount, breakdown.String(),
		assessment.Level, assessment.Score, strings.Join(assessment.Factors, "; "))
}

func buildWalletPrompt(portfolio *entities.Portfolio, assessment entities.WalletAssessment) string {
	var tokens []entities.TokenBalance
	var nftCount int
	var totalValue, solBalance float64
	if portfolio != nil {
		tokens = portfolio.Tokens
		nftCount = len(portfolio.NFTs)
		totalValue = portfolio.TotalValueUSD
		solBalance = portfolio.SolBalance
	}

	var breakdown strings.Builder
	for i, t := range topTokensByValue(tokens, 10) {
		pct := 0.0
		if totalValue > 0 {
			pct = t.ValueUSD / totalValue * 100
		}
		fmt.Fprintf(&breakdown, "%d. %s - $%.2f (%.2f%%)\n", i+1, orUnknown(t.Symbol), t.ValueUSD, pct)
	}

	return fmt.Sprintf(`You are an expert cryptocurrency portfolio analyst. Analyze this Solana wallet and provide professional investment insights.

WALLET OVERVIEW:
- Total Portfolio Value: $%.2f
- Native SOL Balance: %.4f SOL
- Number of Tokens: %d
- NFTs: %d

DIVERSIFICATION METRICS:
- Top Token Concentration: %.2f%%
- Top 3 Tokens: %.2f%%
- Top 5 Tokens: %.2f%%
- Herfindahl Index: %.3f (0=diversified, 1=concentrated)

TOP HOLDINGS:
%s
PRELIMINARY RISK ASSESSMENT:
- Risk Level: %s
- Risk Score: %d/100
- Key Factors: %s

Provide a detailed professional analysis covering:

1. **Portfolio Composition**: Evaluate the token mix and allocation strategy
2. **Diversification Assessment**: Analyze concentration risk and diversification quality
3. **Risk Factors**: Identify specific risks based on holdings and concentration
4. **Opportunity Analysis**: Highlight potential improvements or rebalancing strategies
5. **Actionable Recommendations**: Provide specific steps to optimize the portfolio

Format your response in clear sections with actionable insights. Be direct and specific. Limit to 400-600 words.`,
		totalValue, solBalance, len(tokens), nftCount,
		assessment.Diversification.TopTokenConcentration,
		assessment.Diversification.Top3Concentration,
		assessment.Diversification.Top5Concentration,
		assessment.Diversification.HerfindahlIndex,
		breakdown.String(),
		assessment.Level, assessment.Score, strings.Join(assessment.Factors, "; "))
}

func topTokensByValue(tokens []entities.TokenBalance, n int) []entities.TokenBalance {
	sorted := risk.SortByValueDesc(tokens)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
