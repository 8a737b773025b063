package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/risk"
	"github.com/solrisk-service/solrisk_service/pkg/metrics"
	"go.uber.org/zap"
)

// PortfolioProvider returns a wallet's portfolio: token balances with USD
// values, NFTs and the native SOL balance.
type PortfolioProvider interface {
	Portfolio(ctx context.Context, walletAddress string) (*entities.Portfolio, error)
}

// WalletReportRepository persists wallet analysis reports.
type WalletReportRepository interface {
	Create(ctx context.Context, report *entities.WalletReport) error
	AttachNarrative(ctx context.Context, id uuid.UUID, narrative string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.WalletReport, error)
}

// WalletAnalysis is the response of a full wallet analysis.
type WalletAnalysis struct {
	ReportID        uuid.UUID                       `json:"reportId"`
	WalletAddress   string                          `json:"walletAddress"`
	RiskLevel       entities.RiskLevel              `json:"riskLevel"`
	RiskScore       int                             `json:"riskScore"`
	TotalValueUSD   float64                         `json:"totalValueUsd"`
	TokenCount      int                             `json:"tokenCount"`
	NFTCount        int                             `json:"nftCount"`
	Diversification entities.DiversificationMetrics `json:"diversification"`
	Recommendations []string                        `json:"recommendations"`
	Timestamp       time.Time                       `json:"timestamp"`
}

// WalletLookup is the response of a quick wallet lookup (no persistence).
type WalletLookup struct {
	WalletAddress   string                          `json:"walletAddress"`
	RiskLevel       entities.RiskLevel              `json:"riskLevel"`
	RiskScore       int                             `json:"riskScore"`
	Narrative       string                          `json:"narrative"`
	TotalValueUSD   float64                         `json:"totalValueUsd"`
	TokenCount      int                             `json:"tokenCount"`
	NFTCount        int                             `json:"nftCount"`
	TopTokens       []entities.TokenBalance         `json:"topTokens"`
	Diversification entities.DiversificationMetrics `json:"diversification"`
	RiskFactors     []string                        `json:"riskFactors"`
	Recommendations []string                        `json:"recommendations"`
	Timestamp       time.Time                       `json:"timestamp"`
}

// WalletService runs wallet risk analyses.
type WalletService struct {
	portfolios PortfolioProvider
	reports    WalletReportRepository
	narrator   *Narrator
	scorer     *risk.WalletScorer
	cache      LookupCache
	logger     *zap.Logger
}

// NewWalletService creates a wallet analysis service. cache may be nil.
func NewWalletService(
	portfolios PortfolioProvider,
	reports WalletReportRepository,
	narrator *Narrator,
	cache LookupCache,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{
		portfolios: portfolios,
		reports:    reports,
		narrator:   narrator,
		scorer:     risk.NewWalletScorer(logger),
		cache:      cache,
		logger:     logger,
	}
}

// Analyze runs a full wallet analysis: fetch, score, persist, respond.
// Unlike the token path a portfolio fetch failure aborts here: with no
// portfolio there is nothing to assess beyond the empty-wallet baseline,
// and persisting that for a transient upstream error would be misleading.
func (s *WalletService) Analyze(ctx context.Context, walletAddress string) (*WalletAnalysis, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}

	portfolio, err := s.portfolios.Portfolio(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet portfolio: %w", err)
	}

	assessment := s.scorer.Score(portfolio)
	s.logger.Info("wallet risk analysis complete",
		zap.String("wallet_address", walletAddress),
		zap.String("risk_level", string(assessment.Level)),
		zap.Int("risk_score", assessment.Score),
		zap.Float64("total_value_usd", portfolio.TotalValueUSD),
	)

	report := buildWalletReport(walletAddress, portfolio, assessment)

	if err := s.reports.Create(ctx, report); err != nil {
		metrics.ReportWritesTotal.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("failed to persist wallet report: %w", err)
	}
	metrics.ReportWritesTotal.WithLabelValues("create", "ok").Inc()
	metrics.AnalysesTotal.WithLabelValues("wallet", string(report.RiskLevel)).Inc()
	metrics.RiskScoreHistogram.WithLabelValues("wallet").Observe(float64(report.RiskScore))

	s.enrichWalletAsync(report.ID, portfolio, assessment)

	return &WalletAnalysis{
		ReportID:        report.ID,
		WalletAddress:   walletAddress,
		RiskLevel:       report.RiskLevel,
		RiskScore:       report.RiskScore,
		TotalValueUSD:   portfolio.TotalValueUSD,
		TokenCount:      portfolio.TokenCount,
		NFTCount:        portfolio.NFTCount,
		Diversification: assessment.Diversification,
		Recommendations: assessment.Recommendations,
		Timestamp:       report.CreatedAt,
	}, nil
}

// QuickLookup computes a wallet assessment without persisting anything.
// The narrative is generated inline, with the deterministic fallback on
// provider failure.
func (s *WalletService) QuickLookup(ctx context.Context, walletAddress string) (*WalletLookup, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}

	cacheKey := "wallet:" + walletAddress
	if s.cache != nil {
		var cached WalletLookup
		if ok, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	portfolio, err := s.portfolios.Portfolio(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet portfolio: %w", err)
	}

	assessment := s.scorer.Score(portfolio)

	narrative, err := s.narrator.WalletNarrative(ctx, portfolio, assessment)
	if err != nil {
		s.logger.Warn("narrative provider failed, using fallback",
			zap.String("wallet_address", walletAddress),
			zap.Error(err),
		)
		metrics.NarrativeEnrichmentsTotal.WithLabelValues("wallet", "fallback").Inc()
		narrative = FallbackWalletNarrative(assessment)
	} else {
		metrics.NarrativeEnrichmentsTotal.WithLabelValues("wallet", "success").Inc()
	}

	lookup := &WalletLookup{
		WalletAddress:   walletAddress,
		RiskLevel:       assessment.Level,
		RiskScore:       assessment.Score,
		Narrative:       narrative,
		TotalValueUSD:   portfolio.TotalValueUSD,
		TokenCount:      portfolio.TokenCount,
		NFTCount:        portfolio.NFTCount,
		TopTokens:       topTokensByValue(portfolio.Tokens, 5),
		Diversification: assessment.Diversification,
		RiskFactors:     assessment.Factors,
		Recommendations: assessment.Recommendations,
		Timestamp:       time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, lookup); err != nil {
			s.logger.Warn("failed to cache wallet lookup", zap.Error(err))
		}
	}

	return lookup, nil
}

// GetReport fetches a persisted wallet report by ID.
func (s *WalletService) GetReport(ctx context.Context, id uuid.UUID) (*entities.WalletReport, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *WalletService) enrichWalletAsync(reportID uuid.UUID, portfolio *entities.Portfolio, assessment entities.WalletAssessment) {
	results := make(chan enrichmentResult, 1)

	go func() {
		res := enrichmentResult{reportID: reportID}

		narrative, err := s.narrator.WalletNarrative(context.Background(), portfolio, assessment)
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
			metrics.NarrativeEnrichmentsTotal.WithLabelValues("wallet", "fallback").Inc()
			s.logger.Warn("wallet narrative enrichment failed",
				zap.String("report_id", res.reportID.String()),
				zap.Error(res.genErr),
			)
		case res.patchErr != nil:
			metrics.NarrativeEnrichmentsTotal.WithLabelValues("wallet", "patch_failed").Inc()
			metrics.ReportWritesTotal.WithLabelValues("patch", "error").Inc()
			s.logger.Warn("failed to attach wallet narrative",
				zap.String("report_id", res.reportID.String()),
				zap.Error(res.patchErr),
			)
		default:
			metrics.NarrativeEnrichmentsTotal.WithLabelValues("wallet", "success").Inc()
			metrics.ReportWritesTotal.WithLabelValues("patch", "ok").Inc()
			s.logger.Info("wallet narrative attached",
				zap.String("report_id", res.reportID.String()),
			)
		}
	}()
}

func buildWalletReport(walletAddress string, portfolio *entities.Portfolio, assessment entities.WalletAssessment) *entities.WalletReport {
	now := time.Now().UTC()
	report := &entities.WalletReport{
		ID:              uuid.New(),
		WalletAddress:   walletAddress,
		Chain:           "solana",
		TotalValueUSD:   portfolio.TotalValueUSD,
		SolBalance:      portfolio.SolBalance,
		TokenCount:      portfolio.TokenCount,
		NFTCount:        portfolio.NFTCount,
		Tokens:          portfolio.Tokens,
		NFTs:            portfolio.NFTs,
		RiskLevel:       assessment.Level,
		RiskScore:       assessment.Score,
		RiskFactors:     assessment.Factors,
		Diversification: assessment.Diversification,
		Recommendations: assessment.Recommendations,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if raw, err := json.Marshal(portfolio); err == nil {
		report.RawJSON = string(raw)
	}
	return report
}
