package risk

import (
	"testing"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func tokensWithValues(values ...float64) []entities.TokenBalance {
	tokens := make([]entities.TokenBalance, len(values))
	for i, v := range values {
		tokens[i] = entities.TokenBalance{ValueUSD: v}
	}
	return tokens
}

func TestHerfindahlSingleHolding(t *testing.T) {
	tokens := tokensWithValues(100)
	assert.Equal(t, 1.0, Herfindahl(tokens, 100))
}

func TestHerfindahlFourEqualHoldings(t *testing.T) {
	tokens := tokensWithValues(25, 25, 25, 25)
	assert.InDelta(t, 0.25, Herfindahl(tokens, 100), 1e-9)
}

func TestHerfindahlZeroTotal(t *testing.T) {
	tokens := tokensWithValues(10, 20)
	assert.Equal(t, 0.0, Herfindahl(tokens, 0))
	assert.Equal(t, 0.0, Herfindahl(tokens, -5))
}

func TestHerfindahlStaysInUnitInterval(t *testing.T) {
	cases := [][]float64{
		{1},
		{50, 30, 20},
		{10, 10, 10, 10, 10, 10, 10, 10, 10, 10},
		{99.9, 0.1},
	}
	for _, values := range cases {
		var total float64
		for _, v := range values {
			total += v
		}
		index := Herfindahl(tokensWithValues(values...), total)
		assert.GreaterOrEqual(t, index, 0.0)
		assert.LessOrEqual(t, index, 1.0)
	}
}

func TestSortByValueDesc(t *testing.T) {
	tokens := tokensWithValues(5, 100, 30)

	sorted := SortByValueDesc(tokens)
	assert.Equal(t, 100.0, sorted[0].ValueUSD)
	assert.Equal(t, 30.0, sorted[1].ValueUSD)
	assert.Equal(t, 5.0, sorted[2].ValueUSD)
	// Input order is untouched.
	assert.Equal(t, 5.0, tokens[0].ValueUSD)
}

func TestDiversificationMetrics(t *testing.T) {
	sorted := SortByValueDesc(tokensWithValues(60, 20, 10, 5, 3, 2))

	metrics := Diversification(sorted, 100)
	assert.InDelta(t, 60.0, metrics.TopTokenConcentration, 1e-9)
	assert.InDelta(t, 90.0, metrics.Top3Concentration, 1e-9)
	assert.InDelta(t, 98.0, metrics.Top5Concentration, 1e-9)
	assert.InDelta(t, 0.4138, metrics.HerfindahlIndex, 1e-4)
}

func TestDiversificationZeroTotal(t *testing.T) {
	metrics := Diversification(tokensWithValues(0, 0), 0)
	assert.Equal(t, 0.0, metrics.TopTokenConcentration)
	assert.Equal(t, 0.0, metrics.HerfindahlIndex)
}
