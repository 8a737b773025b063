package risk

import (
	"testing"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, entities.RiskLow, Level(0))
	assert.Equal(t, entities.RiskLow, Level(29))
	assert.Equal(t, entities.RiskMedium, Level(30))
	assert.Equal(t, entities.RiskMedium, Level(59))
	assert.Equal(t, entities.RiskHigh, Level(60))
	assert.Equal(t, entities.RiskHigh, Level(100))
}

func TestTokenRecommendationCounts(t *testing.T) {
	assert.Len(t, TokenRecommendations(entities.RiskLow), 2)
	assert.Len(t, TokenRecommendations(entities.RiskMedium), 3)

	high := TokenRecommendations(entities.RiskHigh)
	assert.Len(t, high, 4)
	assert.Contains(t, high[0], "extreme caution")
}

func TestWalletRecommendationCounts(t *testing.T) {
	assert.Len(t, WalletRecommendations(entities.RiskLow), 2)
	assert.Len(t, WalletRecommendations(entities.RiskMedium), 3)
	assert.Len(t, WalletRecommendations(entities.RiskHigh), 4)
}

func TestOverrideForConcentration(t *testing.T) {
	t.Run("above 80 forces critical and floor of 90", func(t *testing.T) {
		level, score := OverrideForConcentration(entities.RiskMedium, 45, 85)
		assert.Equal(t, entities.RiskCritical, level)
		assert.Equal(t, 90, score)
	})

	t.Run("above 80 keeps a higher score", func(t *testing.T) {
		level, score := OverrideForConcentration(entities.RiskHigh, 95, 81)
		assert.Equal(t, entities.RiskCritical, level)
		assert.Equal(t, 95, score)
	})

	t.Run("above 60 forces high and floor of 75", func(t *testing.T) {
		level, score := OverrideForConcentration(entities.RiskLow, 25, 65)
		assert.Equal(t, entities.RiskHigh, level)
		assert.Equal(t, 75, score)
	})

	t.Run("at or below 60 leaves the assessment alone", func(t *testing.T) {
		level, score := OverrideForConcentration(entities.RiskMedium, 45, 60)
		assert.Equal(t, entities.RiskMedium, level)
		assert.Equal(t, 45, score)
	})
}
