package risk

import (
	"fmt"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"go.uber.org/zap"
)

// WalletScorer derives a wallet risk assessment, with diversification
// metrics, from a normalized portfolio.
type WalletScorer struct {
	logger *zap.Logger
}

// NewWalletScorer creates a wallet scorer.
func NewWalletScorer(logger *zap.Logger) *WalletScorer {
	return &WalletScorer{logger: logger}
}

// Score evaluates portfolio concentration, Herfindahl diversification,
// token count and total value. An empty token list short-circuits to a LOW
// assessment with score 20. Score never returns an error; internal faults
// are recovered into a diagnostic factor on a best-effort assessment.
func (s *WalletScorer) Score(portfolio *entities.Portfolio) (assessment entities.WalletAssessment) {
	assessment = entities.WalletAssessment{
		RiskAssessment: entities.RiskAssessment{
			Level:           entities.RiskUnknown,
			Factors:         []string{},
			Recommendations: []string{},
		},
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("wallet scoring fault", zap.Any("panic", r))
			assessment.Factors = append(assessment.Factors, fmt.Sprintf("Error analyzing wallet: %v", r))
		}
	}()

	if portfolio == nil || len(portfolio.Tokens) == 0 {
		assessment.Level = entities.RiskLow
		assessment.Score = 20
		assessment.Factors = append(assessment.Factors, "Empty wallet or no token holdings")
		assessment.Recommendations = append(assessment.Recommendations, "Wallet has no significant holdings")
		return assessment
	}

	tokens := portfolio.Tokens
	totalValue := portfolio.TotalValueUSD

	sorted := SortByValueDesc(tokens)
	assessment.Diversification = Diversification(sorted, totalValue)

	score := float64(baselineScore)

	top1 := assessment.Diversification.TopTokenConcentration
	switch {
	case top1 > 80:
		score += 30
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("CRITICAL: Single token represents %.1f%% of portfolio", top1))
	case top1 > 60:
		score += 20
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("HIGH: Top token represents %.1f%% of portfolio", top1))
	case top1 > 40:
		score += 10
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("MEDIUM: Top token represents %.1f%% of portfolio", top1))
	default:
		score -= 10
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("Good diversification: Top token is %.1f%% of portfolio", top1))
	}

	// Values in [0.2, 0.5] trigger neither branch.
	hhi := assessment.Diversification.HerfindahlIndex
	if hhi > 0.5 {
		score += 15
		assessment.Factors = append(assessment.Factors, "Portfolio is highly concentrated")
	} else if hhi < 0.2 {
		score -= 10
		assessment.Factors = append(assessment.Factors, "Portfolio is well diversified")
	}

	if len(tokens) < 3 {
		score += 15
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("Low diversification: Only %d token(s) held", len(tokens)))
	} else if len(tokens) > 10 {
		score -= 5
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("Good diversification: %d different tokens", len(tokens)))
	}

	if totalValue < 100 {
		score -= 10
		assessment.Factors = append(assessment.Factors, "Small portfolio value - lower risk exposure")
	} else if totalValue > 100000 {
		score += 10
		assessment.Factors = append(assessment.Factors, "Large portfolio value - consider additional security measures")
	}

	assessment.Score = clampScore(score)
	assessment.Level = Level(assessment.Score)
	assessment.Recommendations = WalletRecommendations(assessment.Level)
	return assessment
}
