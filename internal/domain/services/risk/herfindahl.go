package risk

import (
	"sort"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
)

// Herfindahl computes the Herfindahl index over the given token balances:
// the sum of squared value shares. It returns 0 when totalValue is not
// positive. The index lands in [0,1]; near 1 a single holding dominates,
// near 0 the value is evenly spread.
func Herfindahl(tokens []entities.TokenBalance, totalValue float64) float64 {
	if totalValue <= 0 {
		return 0
	}

	var index float64
	for _, t := range tokens {
		share := t.ValueUSD / totalValue
		index += share * share
	}
	return index
}

// Diversification computes value-concentration and Herfindahl metrics for a
// wallet. Unlike Concentration, which consumes a precomputed percentage
// field, these shares are derived from absolute USD value, so tokens must be
// sorted descending by value before slicing; SortByValueDesc does that.
func Diversification(sorted []entities.TokenBalance, totalValue float64) entities.DiversificationMetrics {
	metrics := entities.DiversificationMetrics{
		HerfindahlIndex: Herfindahl(sorted, totalValue),
	}
	if totalValue <= 0 {
		return metrics
	}

	metrics.TopTokenConcentration = valueShare(sorted, 1, totalValue)
	metrics.Top3Concentration = valueShare(sorted, 3, totalValue)
	metrics.Top5Concentration = valueShare(sorted, 5, totalValue)
	return metrics
}

// SortByValueDesc returns a copy of tokens ordered by descending USD value.
func SortByValueDesc(tokens []entities.TokenBalance) []entities.TokenBalance {
	sorted := make([]entities.TokenBalance, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ValueUSD > sorted[j].ValueUSD
	})
	return sorted
}

func valueShare(sorted []entities.TokenBalance, n int, totalValue float64) float64 {
	if n > len(sorted) {
		n = len(sorted)
	}
	var sum float64
	for _, t := range sorted[:n] {
		sum += t.ValueUSD
	}
	return sum / totalValue * 100
}
