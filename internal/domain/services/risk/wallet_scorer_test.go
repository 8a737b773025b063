package risk

import (
	"testing"

	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWalletScorer() *WalletScorer {
	return NewWalletScorer(zap.NewNop())
}

func portfolioWithValues(values ...float64) *entities.Portfolio {
	var total float64
	tokens := make([]entities.TokenBalance, len(values))
	for i, v := range values {
		tokens[i] = entities.TokenBalance{ValueUSD: v}
		total += v
	}
	return &entities.Portfolio{
		Tokens:        tokens,
		TotalValueUSD: total,
		TokenCount:    len(tokens),
	}
}

func TestWalletScoreEmptyWallet(t *testing.T) {
	assessment := newWalletScorer().Score(&entities.Portfolio{})

	assert.Equal(t, entities.RiskLow, assessment.Level)
	assert.Equal(t, 20, assessment.Score)
	assert.Equal(t, []string{"Empty wallet or no token holdings"}, assessment.Factors)
	assert.Equal(t, []string{"Wallet has no significant holdings"}, assessment.Recommendations)
}

func TestWalletScoreNilPortfolio(t *testing.T) {
	assessment := newWalletScorer().Score(nil)
	assert.Equal(t, entities.RiskLow, assessment.Level)
	assert.Equal(t, 20, assessment.Score)
}

func TestWalletScoreSingleToken(t *testing.T) {
	assessment := newWalletScorer().Score(portfolioWithValues(1000))

	// A single token forces 100% top-1 concentration (+30), a Herfindahl
	// index of 1 (+15) and the low token count penalty (+15).
	assert.Equal(t, 100, assessment.Score)
	assert.Equal(t, entities.RiskHigh, assessment.Level)
	assert.Contains(t, assessment.Factors, "CRITICAL: Single token represents 100.0% of portfolio")
	assert.Contains(t, assessment.Factors, "Low diversification: Only 1 token(s) held")
	assert.InDelta(t, 1.0, assessment.Diversification.HerfindahlIndex, 1e-9)
}

func TestWalletScoreWellDiversified(t *testing.T) {
	// Twelve near-equal positions: top-1 under 40%, HHI under 0.2, more
	// than ten tokens, mid-range total value.
	assessment := newWalletScorer().Score(portfolioWithValues(
		100, 95, 90, 85, 80, 80, 75, 75, 70, 70, 65, 65,
	))

	// 50 - 10 (good top-1) - 10 (HHI) - 5 (token count).
	assert.Equal(t, 25, assessment.Score)
	assert.Equal(t, entities.RiskLow, assessment.Level)
	assert.Contains(t, assessment.Factors, "Portfolio is well diversified")
	assert.Contains(t, assessment.Factors, "Good diversification: 12 different tokens")
	assert.Len(t, assessment.Recommendations, 2)
}

func TestWalletScoreConcentrationBands(t *testing.T) {
	t.Run("top token above 60 percent", func(t *testing.T) {
		assessment := newWalletScorer().Score(portfolioWithValues(700, 200, 50, 50))

		// 50 + 20 (top-1 70%) - 0 (HHI 0.515 > 0.5 is +15).
		require.NotEmpty(t, assessment.Factors)
		assert.Contains(t, assessment.Factors[0], "HIGH: Top token represents 70.0%")
	})

	t.Run("top token above 40 percent", func(t *testing.T) {
		assessment := newWalletScorer().Score(portfolioWithValues(500, 300, 100, 100))

		assert.Contains(t, assessment.Factors[0], "MEDIUM: Top token represents 50.0%")
	})
}

func TestWalletScoreHerfindahlMidRangeIsNeutral(t *testing.T) {
	// Shares 0.5/0.3/0.2 give HHI 0.38, inside the neutral band.
	assessment := newWalletScorer().Score(portfolioWithValues(500, 300, 200))

	for _, f := range assessment.Factors {
		assert.NotContains(t, f, "highly concentrated")
		assert.NotContains(t, f, "well diversified")
	}
}

func TestWalletScorePortfolioValueBands(t *testing.T) {
	t.Run("small portfolio reduces exposure", func(t *testing.T) {
		assessment := newWalletScorer().Score(portfolioWithValues(20, 15, 15, 10))
		assert.Contains(t, assessment.Factors, "Small portfolio value - lower risk exposure")
	})

	t.Run("large portfolio adds security concern", func(t *testing.T) {
		assessment := newWalletScorer().Score(portfolioWithValues(60000, 40000, 30000, 20000))
		assert.Contains(t, assessment.Factors, "Large portfolio value - consider additional security measures")
	})
}

func TestWalletScoreClampsToHundred(t *testing.T) {
	// 50 + 30 (top-1 > 80) + 15 (HHI) + 15 (count) + 10 (value) = 120.
	assessment := newWalletScorer().Score(portfolioWithValues(190000, 10000))
	assert.Equal(t, 100, assessment.Score)
}

func TestWalletScoreIdempotent(t *testing.T) {
	portfolio := portfolioWithValues(500, 300, 100, 50, 50)

	first := newWalletScorer().Score(portfolio)
	second := newWalletScorer().Score(portfolio)
	assert.Equal(t, first, second)
}

func TestWalletScoreZeroValueTokensStillCount(t *testing.T) {
	// Tokens without a USD value count toward diversification denominators
	// with zero share.
	portfolio := &entities.Portfolio{
		Tokens: []entities.TokenBalance{
			{ValueUSD: 100},
			{ValueUSD: 0},
			{ValueUSD: 0},
		},
		TotalValueUSD: 100,
	}

	assessment := newWalletScorer().Score(portfolio)

	assert.InDelta(t, 100.0, assessment.Diversification.TopTokenConcentration, 1e-9)
	assert.InDelta(t, 1.0, assessment.Diversification.HerfindahlIndex, 1e-9)
	// Three tokens held, so the low-count penalty does not fire.
	assert.NotContains(t, assessment.Factors, "Low diversification: Only 3 token(s) held")
}
