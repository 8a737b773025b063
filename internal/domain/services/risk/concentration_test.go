package risk

import (
	"testing"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func holdersWithPercentages(percentages ...float64) []entities.Holding {
	holders := make([]entities.Holding, len(percentages))
	for i, p := range percentages {
		holders[i] = entities.Holding{Rank: i + 1, Percentage: p}
	}
	return holders
}

func TestConcentrationEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Concentration(nil, 3))
	assert.Equal(t, 0.0, Concentration([]entities.Holding{}, 10))
}

func TestConcentrationSumsFirstN(t *testing.T) {
	holders := holdersWithPercentages(40, 35, 5, 2, 1)

	assert.Equal(t, 80.0, Concentration(holders, 3))
	assert.Equal(t, 82.0, Concentration(holders, 4))
	assert.Equal(t, 83.0, Concentration(holders, 5))
}

func TestConcentrationNLargerThanList(t *testing.T) {
	holders := holdersWithPercentages(10, 5)
	assert.Equal(t, 15.0, Concentration(holders, 10))
}

func TestConcentrationRoundsToTwoDecimals(t *testing.T) {
	holders := holdersWithPercentages(33.333, 33.333, 33.333)
	assert.Equal(t, 100.0, Concentration(holders, 3))

	holders = holdersWithPercentages(0.005, 0.001)
	assert.Equal(t, 0.01, Concentration(holders, 2))
}

func TestConcentrationMonotonicInN(t *testing.T) {
	holders := holdersWithPercentages(25, 20, 15, 10, 5, 2, 1, 0.5, 0.2, 0.1)

	prev := 0.0
	for n := 1; n <= len(holders); n++ {
		current := Concentration(holders, n)
		assert.GreaterOrEqual(t, current, prev, "concentration must not decrease as n grows")
		prev = current
	}
}

func TestConcentrationToleratesOverHundredTotals(t *testing.T) {
	// Upstream data errors can push the aggregate past 100; the calculator
	// must pass that through untouched.
	holders := holdersWithPercentages(60, 55)
	assert.Equal(t, 115.0, Concentration(holders, 2))
}

func TestConcentrationMetrics(t *testing.T) {
	holders := holdersWithPercentages(40, 35, 5, 2, 1, 1, 1, 1, 1, 1)

	metrics := ConcentrationMetrics(holders)
	assert.Equal(t, 80.0, metrics.Top3)
	assert.Equal(t, 83.0, metrics.Top5)
	assert.Equal(t, 88.0, metrics.Top10)
}
