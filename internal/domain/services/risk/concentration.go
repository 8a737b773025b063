// Package risk implements the rule-based scoring engine that turns
// normalized holder and portfolio data into risk scores, levels and
// human-readable factors. All functions are pure and safe for concurrent
// use.
package risk

import (
	"math"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
)

// Concentration sums the supply percentage of the first n holdings. The
// caller is responsible for ordering; holdings are taken as given and the
// first min(n, len) are summed. Empty input yields 0. The result is rounded
// to two decimals.
func Concentration(holdings []entities.Holding, n int) float64 {
	if len(holdings) == 0 {
		return 0
	}
	if n > len(holdings) {
		n = len(holdings)
	}

	var total float64
	for _, h := range holdings[:n] {
		total += h.Percentage
	}
	return round2(total)
}

// ConcentrationMetrics computes the standard top-3/5/10 concentration view
// used by token reports.
func ConcentrationMetrics(holdings []entities.Holding) entities.ConcentrationMetrics {
	return entities.ConcentrationMetrics{
		Top3:  Concentration(holdings, 3),
		Top5:  Concentration(holdings, 5),
		Top10: Concentration(holdings, 10),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
