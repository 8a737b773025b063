package risk

import "github.com/solrisk-service/solrisk_service/internal/domain/entities"

// Level maps a clamped numeric score to its ordinal risk level. CRITICAL is
// never produced here; it is only reachable through the report-level
// concentration override.
func Level(score int) entities.RiskLevel {
	switch {
	case score < 30:
		return entities.RiskLow
	case score < 60:
		return entities.RiskMedium
	default:
		return entities.RiskHigh
	}
}

// TokenRecommendations returns the fixed recommendation set for a token
// risk level. The text depends only on the level, not on which factors
// fired.
func TokenRecommendations(level entities.RiskLevel) []string {
	switch level {
	case entities.RiskLow:
		return []string{
			"Token shows relatively low risk based on holder distribution",
			"Continue monitoring for changes in holder concentration",
		}
	case entities.RiskMedium:
		return []string{
			"Exercise caution - moderate risk detected",
			"Monitor holder concentration and trading patterns",
			"Verify token legitimacy through multiple sources",
		}
	default:
		return []string{
			"HIGH RISK: Proceed with extreme caution",
			"Significant holder concentration or suspicious patterns detected",
			"Conduct thorough due diligence before any investment",
			"Consider consulting with security experts",
		}
	}
}

// WalletRecommendations returns the fixed recommendation set for a wallet
// risk level, with diversification-specific wording.
func WalletRecommendations(level entities.RiskLevel) []string {
	switch level {
	case entities.RiskLow:
		return []string{
			"Portfolio shows good diversification",
			"Continue monitoring token performance",
		}
	case entities.RiskMedium:
		return []string{
			"Consider diversifying holdings further",
			"Monitor top holdings for concentration risk",
			"Review token fundamentals regularly",
		}
	default:
		return []string{
			"HIGH RISK: Portfolio is highly concentrated",
			"Strongly consider diversifying across more tokens",
			"Reduce exposure to top holdings",
			"Implement risk management strategies",
		}
	}
}

// OverrideForConcentration applies the report-level escalation based on
// top-10 holder concentration. This is a finishing step on the persisted
// report, deliberately separate from the scorer's own thresholds: above 80%
// the level is forced to CRITICAL and the score to at least 90, above 60%
// to HIGH and at least 75.
func OverrideForConcentration(level entities.RiskLevel, score int, top10 float64) (entities.RiskLevel, int) {
	switch {
	case top10 > 80:
		if score < 90 {
			score = 90
		}
		return entities.RiskCritical, score
	case top10 > 60:
		if score < 75 {
			score = 75
		}
		return entities.RiskHigh, score
	default:
		return level, score
	}
}

func clampScore(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score + 0.5)
}
