// Package analysis orchestrates risk analyses: it pulls data from upstream
// providers, runs the scoring engine, persists reports and kicks off
// narrative enrichment. Collaborators are injected as interfaces; the
// package holds no ambient state.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/risk"
	"github.com/solrisk-service/solrisk_service/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultTopN is the holder count requested when the caller does not ask
// for a specific one.
const DefaultTopN = 10

// displayHolderCount is the fixed length of the persisted top-holder list.
// Scoring runs over all supplied holders; only the display list is padded
// or truncated to this length.
const displayHolderCount = 10

// HolderProvider returns normalized holder data for a token.
type HolderProvider interface {
	TokenHolders(ctx context.Context, tokenAddress string, topN int) (*entities.TokenHolders, error)
}

// MarketProvider returns normalized market data for a token.
type MarketProvider interface {
	TokenMarket(ctx context.Context, tokenAddress string) (*entities.MarketSnapshot, error)
	Search(ctx context.Context, query string) ([]entities.MarketSnapshot, error)
}

// TokenReportRepository persists token analysis reports. Create happens
// once per analysis; AttachNarrative at most once afterwards.
type TokenReportRepository interface {
	Create(ctx context.Context, report *entities.TokenReport) error
	AttachNarrative(ctx context.Context, id uuid.UUID, narrative string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TokenReport, error)
}

// LookupCache caches quick-lookup results. Implementations must treat a
// miss as (false, nil).
type LookupCache interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// TokenAnalysis is the response of a full token analysis.
type TokenAnalysis struct {
	ReportID        uuid.UUID                     `json:"reportId"`
	TokenAddress    string                        `json:"tokenAddress"`
	RiskLevel       entities.RiskLevel            `json:"riskLevel"`
	RiskScore       int                           `json:"riskScore"`
	Concentration   entities.ConcentrationMetrics `json:"concentration"`
	Recommendations []string                      `json:"recommendations"`
	Timestamp       time.Time                     `json:"timestamp"`
}

// TokenLookup is the response of a quick token lookup (no persistence).
type TokenLookup struct {
	TokenAddress    string                        `json:"tokenAddress"`
	RiskLevel       entities.RiskLevel            `json:"riskLevel"`
	RiskScore       int                           `json:"riskScore"`
	Narrative       string                        `json:"narrative"`
	Concentration   entities.ConcentrationMetrics `json:"concentration"`
	TopHolders      []entities.Holding            `json:"topHolders"`
	Recommendations []string                      `json:"recommendations"`
	Timestamp       time.Time                     `json:"timestamp"`
}

type enrichmentResult struct {
	reportID  uuid.UUID
	narrative string
	genErr    error
	patchErr  error
	skipped   bool
}

// TokenService runs token risk analyses.
type TokenService struct {
	holders  HolderProvider
	market   MarketProvider
	reports  TokenReportRepository
	narrator *Narrator
	scorer   *risk.TokenScorer
	cache    LookupCache
	logger   *zap.Logger
}

// NewTokenService creates a token analysis service. cache may be nil.
func NewTokenService(
	holders HolderProvider,
	market MarketProvider,
	reports TokenReportRepository,
	narrator *Narrator,
	cache LookupCache,
	logger *zap.Logger,
) *TokenService {
	return &TokenService{
		holders:  holders,
		market:   market,
		reports:  reports,
		narrator: narrator,
		scorer:   risk.NewTokenScorer(logger),
		cache:    cache,
		logger:   logger,
	}
}

// Analyze runs a full analysis: fetch, score, persist, respond. Narrative
// enrichment happens in the background after the report is written; the
// returned assessment never waits for it. A provider failure degrades to
// scoring on partial data; only a persistence failure aborts.
func (s *TokenService) Analyze(ctx context.Context, tokenAddress string, topN int) (*TokenAnalysis, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	holderData := s.fetchHolders(ctx, tokenAddress, topN)
	marketData := s.fetchMarket(ctx, tokenAddress)

	var holderList []entities.Holding
	if holderData != nil {
		holderList = holderData.Holders
	}
	concentration := risk.ConcentrationMetrics(holderList)

	assessment := s.scorer.Score(holderData, marketData)
	s.logger.Info("token risk analysis complete",
		zap.String("token_address", tokenAddress),
		zap.String("risk_level", string(assessment.Level)),
		zap.Int("risk_score", assessment.Score),
	)

	report := buildTokenReport(tokenAddress, holderData, concentration, assessment)

	if err := s.reports.Create(ctx, report); err != nil {
		metrics.ReportWritesTotal.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("failed to persist token report: %w", err)
	}
	metrics.ReportWritesTotal.WithLabelValues("create", "ok").Inc()
	metrics.AnalysesTotal.WithLabelValues("token", string(report.RiskLevel)).Inc()
	metrics.RiskScoreHistogram.WithLabelValues("token").Observe(float64(report.RiskScore))

	s.enrichAsync(report.ID, holderData, assessment, concentration)

	return &TokenAnalysis{
		ReportID:        report.ID,
		TokenAddress:    tokenAddress,
		RiskLevel:       report.RiskLevel,
		RiskScore:       report.RiskScore,
		Concentration:   concentration,
		Recommendations: assessment.Recommendations,
		Timestamp:       report.CreatedAt,
	}, nil
}

// QuickLookup computes an assessment without persisting anything. The
// narrative is generated inline, with the deterministic fallback on
// provider failure. Results are served from cache when available.
func (s *TokenService) QuickLookup(ctx context.Context, tokenAddress string, topN int) (*TokenLookup, error) {
	if tokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	cacheKey := "token:" + tokenAddress + ":" + strconv.Itoa(topN)
	if s.cache != nil {
		var cached TokenLookup
		if ok, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	holderData := s.fetchHolders(ctx, tokenAddress, topN)
	marketData := s.fetchMarket(ctx, tokenAddress)

	var holderList []entities.Holding
	if holderData != nil {
		holderList = holderData.Holders
	}
	concentration := risk.ConcentrationMetrics(holderList)
	assessment := s.scorer.Score(holderData, marketData)

	narrative, err := s.narrator.TokenNarrative(ctx, holderData, assessment, concentration)
	if err != nil {
		s.logger.Warn("narrative provider failed, using fallback",
			zap.String("token_address", tokenAddress),
			zap.Error(err),
		)
		metrics.NarrativeEnrichmentsTotal.WithLabelValues("token", "fallback").Inc()
		narrative = FallbackNarrative(assessment)
	} else {
		metrics.NarrativeEnrichmentsTotal.WithLabelValues("token", "success").Inc()
	}

	lookup := &TokenLookup{
		TokenAddress:    tokenAddress,
		RiskLevel:       assessment.Level,
		RiskScore:       assessment.Score,
		Narrative:       narrative,
		Concentration:   concentration,
		TopHolders:      holderList,
		Recommendations: assessment.Recommendations,
		Timestamp:       time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, lookup); err != nil {
			s.logger.Warn("failed to cache token lookup", zap.Error(err))
		}
	}

	return lookup, nil
}

// GetReport fetches a persisted token report by ID.
func (s *TokenService) GetReport(ctx context.Context, id uuid.UUID) (*entities.TokenReport, error) {
	return s.reports.GetByID(ctx, id)
}

// Search finds tokens by symbol, name or address and returns their market
// snapshots with the derived volatility risk populated.
func (s *TokenService) Search(ctx context.Context, query string) ([]entities.MarketSnapshot, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	results, err := s.market.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("token search failed: %w", err)
	}
	s.logger.Info("token search complete",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func (s *TokenService) fetchHolders(ctx context.Context, tokenAddress string, topN int) *entities.TokenHolders {
	holderData, err := s.holders.TokenHolders(ctx, tokenAddress, topN)
	if err != nil {
		s.logger.Warn("holder provider unavailable, scoring on partial data",
			zap.String("token_address", tokenAddress),
			zap.Error(err),
		)
		return nil
	}
	return holderData
}

func (s *TokenService) fetchMarket(ctx context.Context, tokenAddress string) *entities.MarketSnapshot {
	marketData, err := s.market.TokenMarket(ctx, tokenAddress)
	if err != nil {
		s.logger.Warn("market provider unavailable, scoring on partial data",
			zap.String("token_address", tokenAddress),
			zap.Error(err),
		)
		return nil
	}
	return marketData
}

// enrichAsync generates the narrative in the background and patches the
// persisted report. The primary response path never waits on it: the
// outcome travels over an explicit result channel to a logging consumer.
// A generation failure skips the patch; a patch failure is logged and
// dropped.
func (s *TokenService) enrichAsync(reportID uuid.UUID, holderData *entities.TokenHolders, assessment entities.RiskAssessment, concentration entities.ConcentrationMetrics) {
	results := make(chan enrichmentResult, 1)

	go func() {
		res := enrichmentResult{reportID: reportID}

		narrative, err := s.narrator.TokenNarrative(context.Background(), holderData, assessment, concentration)
		if err != nil {
			res.genErr = err
			res.skipped = true
			results <- res
			return
		}

		res.narrative = narrative
		res.patchErr = s.reports.AttachNarrative(context.Background(), reportID, narrative)
		results <- res
	}()

	go func() {
		res := <-results
		switch {
		case res.skipped:
			metrics.NarrativeEnrichmentsTotal.WithLabelValues("token", "fallback").Inc()
			s.logger.Warn("token narrative enrichment failed",
				zap.String("report_id", res.reportID.String()),
				zap.Error(res.genErr),
			)
		case res.patchErr != nil:
			metrics.NarrativeEnrichmentsTotal.WithLabelValues("token", "patch_failed").Inc()
			metrics.ReportWritesTotal.WithLabelValues("patch", "error").Inc()
			s.logger.Warn("failed to attach token narrative",
				zap.String("report_id", res.reportID.String()),
				zap.Error(res.patchErr),
			)
		default:
			metrics.NarrativeEnrichmentsTotal.WithLabelValues("token", "success").Inc()
			metrics.ReportWritesTotal.WithLabelValues("patch", "ok").Inc()
			s.logger.Info("token narrative attached",
				zap.String("report_id", res.reportID.String()),
			)
		}
	}()
}

func buildTokenReport(tokenAddress string, holderData *entities.TokenHolders, concentration entities.ConcentrationMetrics, assessment entities.RiskAssessment) *entities.TokenReport {
	now := time.Now().UTC()
	report := &entities.TokenReport{
		ID:              uuid.New(),
		TokenAddress:    tokenAddress,
		TokenName:       "Unknown",
		TokenSymbol:     "Unknown",
		Chain:           "solana",
		Concentration:   concentration,
		RiskLevel:       assessment.Level,
		RiskScore:       assessment.Score,
		Factors:         assessment.Factors,
		Recommendations: assessment.Recommendations,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if holderData != nil {
		if holderData.TokenName != "" {
			report.TokenName = holderData.TokenName
		}
		if holderData.TokenSymbol != "" {
			report.TokenSymbol = holderData.TokenSymbol
		}
		report.TopHolders = padHolders(holderData.Holders)
		if raw, err := json.Marshal(holderData); err == nil {
			report.RawJSON = string(raw)
		}
	} else {
		report.TopHolders = padHolders(nil)
	}

	// The persisted level/score may escalate past the scorer's output when
	// the top-10 concentration is extreme. The in-flight assessment is left
	// untouched.
	report.RiskLevel, report.RiskScore = risk.OverrideForConcentration(
		report.RiskLevel, report.RiskScore, concentration.Top10)

	return report
}

// padHolders fixes the display list at exactly displayHolderCount entries,
// padding with placeholder rows or truncating as needed.
func padHolders(holders []entities.Holding) []entities.Holding {
	padded := make([]entities.Holding, 0, displayHolderCount)
	for i := 0; i < len(holders) && i < displayHolderCount; i++ {
		h := holders[i]
		h.Rank = i + 1
		if h.Owner == "" {
			h.Owner = "Unknown"
		}
		if h.TokenAccount == "" {
			h.TokenAccount = "Unknown"
		}
		if h.AccountType == "" {
			h.AccountType = "Unknown"
		}
		padded = append(padded, h)
	}
	for len(padded) < displayHolderCount {
		padded = append(padded, entities.Holding{
			Rank:         len(padded) + 1,
			Owner:        "N/A",
			TokenAccount: "N/A",
			AccountType:  "N/A",
		})
	}
	return padded
}
