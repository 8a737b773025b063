package entities

// RiskLevel is the ordinal classification derived from a numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// RiskAssessment is the output of a scoring run. It is immutable once
// produced; the narrative field of a persisted report is attached later by a
// separate write and never changes the score.
type RiskAssessment struct {
	Score           int       `json:"riskScore"`
	Level           RiskLevel `json:"riskLevel"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}

// ConcentrationMetrics holds top-N holder supply concentration percentages,
// rounded to two decimals.
type ConcentrationMetrics struct {
	Top3  float64 `json:"top3"`
	Top5  float64 `json:"top5"`
	Top10 float64 `json:"top10"`
}

// DiversificationMetrics describes how a wallet's value is spread across its
// token holdings. HerfindahlIndex is in [0,1]: 1 means a single holding
// dominates, 0 means evenly spread.
type DiversificationMetrics struct {
	TopTokenConcentration float64 `json:"topTokenConcentration"`
	Top3Concentration     float64 `json:"top3Concentration"`
	Top5Concentration     float64 `json:"top5Concentration"`
	HerfindahlIndex       float64 `json:"herfindahlIndex"`
}

// WalletAssessment is a RiskAssessment with the diversification metrics the
// wallet scorer computed alongside it.
type WalletAssessment struct {
	RiskAssessment
	Diversification DiversificationMetrics `json:"diversification"`
}
