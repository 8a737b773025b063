package risk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"go.uber.org/zap"
)

const baselineScore = 50

// recognizedDexIDs lists DEX identifiers whose listings count as a mild
// positive signal. Matching is case-insensitive.
var recognizedDexIDs = []string{"raydium", "orca", "meteora", "lifinity", "phoenix", "jupiter"}

// TokenScorer derives a token risk assessment from normalized holder and
// market data.
type TokenScorer struct {
	logger *zap.Logger
}

// NewTokenScorer creates a token scorer.
func NewTokenScorer(logger *zap.Logger) *TokenScorer {
	return &TokenScorer{logger: logger}
}

// Score combines holder concentration, keyword heuristics and market
// metrics into a 0-100 risk score with factors and recommendations. Either
// input may be nil; with no usable data at all the assessment comes back
// UNKNOWN. Score never returns an error: an internal fault is recovered and
// reported as a diagnostic factor on a best-effort assessment.
func (s *TokenScorer) Score(holders *entities.TokenHolders, market *entities.MarketSnapshot) (assessment entities.RiskAssessment) {
	assessment = entities.RiskAssessment{
		Level:           entities.RiskUnknown,
		Factors:         []string{},
		Recommendations: []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("token scoring fault", zap.Any("panic", r))
			assessment.Factors = append(assessment.Factors, fmt.Sprintf("Error analyzing data: %v", r))
		}
	}()

	hasHolders := holders != nil && len(holders.Holders) > 0
	if !hasHolders && market == nil {
		assessment.Factors = append(assessment.Factors, "No holder or market data available for analysis")
		assessment.Recommendations = append(assessment.Recommendations, "Unable to assess risk - insufficient data")
		return assessment
	}

	score := float64(baselineScore)

	if hasHolders {
		score += s.scoreHolders(holders, &assessment)
	}

	score += s.scoreKeywords(holders, market, &assessment)

	if market != nil {
		score += s.scoreMarket(market, &assessment)
	}

	assessment.Score = clampScore(score)
	assessment.Level = Level(assessment.Score)
	assessment.Recommendations = TokenRecommendations(assessment.Level)
	return assessment
}

// scoreHolders evaluates concentration and account-type signals across all
// supplied holders. The concentration sum deliberately runs over the whole
// list rather than a fixed top-10: the display list is padded/truncated to
// ten entries elsewhere, but scoring follows whatever the provider returned.
func (s *TokenScorer) scoreHolders(holders *entities.TokenHolders, assessment *entities.RiskAssessment) float64 {
	var adjustment float64

	var totalPercentage float64
	for _, h := range holders.Holders {
		totalPercentage += h.Percentage
	}

	switch {
	case totalPercentage > 70:
		adjustment += 25
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("HIGH CONCENTRATION: Top holders control %.2f%% of supply", totalPercentage))
	case totalPercentage > 50:
		adjustment += 15
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("MEDIUM CONCENTRATION: Top holders control %.2f%% of supply", totalPercentage))
	default:
		adjustment -= 10
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("Good distribution: Top holders control %.2f%% of supply", totalPercentage))
	}

	var exchangeCount, suspiciousCount int
	for _, h := range holders.Holders {
		accountType := strings.ToLower(h.AccountType)
		if strings.Contains(accountType, "exchange") || strings.Contains(accountType, "pool") {
			exchangeCount++
		}
		if strings.Contains(accountType, "suspicious") {
			suspiciousCount++
		}
	}

	if exchangeCount > 0 {
		adjustment -= 5
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("%d exchange/pool addresses detected (positive)", exchangeCount))
	}
	if suspiciousCount > 0 {
		adjustment += 20
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("WARNING: %d suspicious addresses detected", suspiciousCount))
	}

	return adjustment
}

// scoreKeywords scans the full normalized payload for risk keywords. The
// three checks are independent and can all fire.
func (s *TokenScorer) scoreKeywords(holders *entities.TokenHolders, market *entities.MarketSnapshot, assessment *entities.RiskAssessment) float64 {
	payload := strings.ToLower(marshalPayload(holders, market))

	var adjustment float64
	if strings.Contains(payload, "scam") || strings.Contains(payload, "fraud") || strings.Contains(payload, "rug") {
		adjustment += 30
		assessment.Factors = append(assessment.Factors, "ALERT: Scam/fraud indicators detected")
	}
	if strings.Contains(payload, "verified") || strings.Contains(payload, "audit") {
		adjustment -= 15
		assessment.Factors = append(assessment.Factors, "Token appears to be verified/audited")
	}
	if strings.Contains(payload, "locked") || strings.Contains(payload, "vested") {
		adjustment -= 10
		assessment.Factors = append(assessment.Factors, "Liquidity appears to be locked/vested")
	}
	return adjustment
}

// scoreMarket evaluates liquidity, market cap, volatility and DEX listing.
// Zero-valued fields mean the upstream had nothing to say; the matching rule
// is skipped rather than treated as a zero measurement.
func (s *TokenScorer) scoreMarket(market *entities.MarketSnapshot, assessment *entities.RiskAssessment) float64 {
	var adjustment float64

	if market.Liquidity > 0 {
		switch {
		case market.Liquidity < 10000:
			adjustment += 20
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("LOW LIQUIDITY: Only $%.0f in pooled liquidity", market.Liquidity))
		case market.Liquidity < 100000:
			adjustment += 10
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("Moderate liquidity: $%.0f pooled", market.Liquidity))
		default:
			adjustment -= 10
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("Good liquidity: $%.0f pooled", market.Liquidity))
		}
	}

	if market.MarketCap > 0 {
		switch {
		case market.MarketCap < 100000:
			adjustment += 15
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("Micro market cap: $%.0f", market.MarketCap))
		case market.MarketCap < 1000000:
			adjustment += 5
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("Small market cap: $%.0f", market.MarketCap))
		}
		if market.MarketCap > 10000000 {
			adjustment -= 10
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("Established market cap: $%.0f", market.MarketCap))
		}
	}

	change := market.PriceChange24h
	if change < 0 {
		change = -change
	}
	switch {
	case change > 50:
		adjustment += 15
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("Extreme volatility: %.1f%% price move in 24h", market.PriceChange24h))
	case change > 20:
		adjustment += 5
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("High volatility: %.1f%% price move in 24h", market.PriceChange24h))
	}

	if market.DexID != "" {
		dexID := strings.ToLower(market.DexID)
		for _, known := range recognizedDexIDs {
			if dexID == known {
				adjustment -= 5
				assessment.Factors = append(assessment.Factors,
					fmt.Sprintf("Listed on recognized DEX: %s", market.DexID))
				break
			}
		}
	}

	return adjustment
}

func marshalPayload(holders *entities.TokenHolders, market *entities.MarketSnapshot) string {
	var sb strings.Builder
	if holders != nil {
		if b, err := json.Marshal(holders); err == nil {
			sb.Write(b)
		}
	}
	if market != nil {
		if b, err := json.Marshal(market); err == nil {
			sb.Write(b)
		}
	}
	return sb.String()
}
