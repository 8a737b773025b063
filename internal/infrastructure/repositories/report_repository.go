// Package repositories implements PostgreSQL persistence for analysis
// reports. Structured sub-documents (holders, metrics, factors) are stored
// as JSONB so historical reports keep their exact shape as scoring evolves.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrReportNotFound is returned when no report exists for the given ID.
var ErrReportNotFound = fmt.Errorf("report not found")

// TokenReportRepository persists token analysis reports in PostgreSQL.
type TokenReportRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewTokenReportRepository creates a new token report repository.
func NewTokenReportRepository(db *sqlx.DB, logger *zap.Logger) *TokenReportRepository {
	return &TokenReportRepository{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("token-report-repository"),
	}
}

// Create inserts a new token report.
func (r *TokenReportRepository) Create(ctx context.Context, report *entities.TokenReport) error {
	ctx, span := r.tracer.Start(ctx, "token_report_repo.create", trace.WithAttributes(
		attribute.String("report_id", report.ID.String()),
		attribute.String("token_address", report.TokenAddress),
	))
	defer span.End()

	holdersJSON, err := json.Marshal(report.TopHolders)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal holders: %w", err)
	}
	concentrationJSON, err := json.Marshal(report.Concentration)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal concentration: %w", err)
	}
	factorsJSON, err := json.Marshal(report.Factors)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal factors: %w", err)
	}
	recommendationsJSON, err := json.Marshal(report.Recommendations)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	query := `
		INSERT INTO token_reports (
			id, token_address, token_name, token_symbol, chain,
			top_holders, concentration, risk_level, risk_score,
			factors, recommendations, raw_json, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.TokenAddress,
		report.TokenName,
		report.TokenSymbol,
		report.Chain,
		holdersJSON,
		concentrationJSON,
		report.RiskLevel,
		report.RiskScore,
		factorsJSON,
		recommendationsJSON,
		nullableText(report.RawJSON),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("failed to create token report",
			zap.Error(err),
			zap.String("report_id", report.ID.String()),
			zap.String("token_address", report.TokenAddress),
		)
		return fmt.Errorf("failed to create token report: %w", err)
	}

	r.logger.Info("token report created",
		zap.String("report_id", report.ID.String()),
		zap.String("token_address", report.TokenAddress),
		zap.String("risk_level", string(report.RiskLevel)),
	)
	return nil
}

// AttachNarrative sets the narrative on an existing token report.
func (r *TokenReportRepository) AttachNarrative(ctx context.Context, id uuid.UUID, narrative string) error {
	ctx, span := r.tracer.Start(ctx, "token_report_repo.attach_narrative", trace.WithAttributes(
		attribute.String("report_id", id.String()),
	))
	defer span.End()

	query := `
		UPDATE token_reports
		SET narrative = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, narrative, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to attach narrative: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrReportNotFound
	}
	return nil
}

// GetByID fetches one token report.
func (r *TokenReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TokenReport, error) {
	ctx, span := r.tracer.Start(ctx, "token_report_repo.get_by_id", trace.WithAttributes(
		attribute.String("report_id", id.String()),
	))
	defer span.End()

	query := `
		SELECT id, token_address, token_name, token_symbol, chain,
			top_holders, concentration, risk_level, risk_score,
			factors, recommendations, narrative, raw_json, created_at, updated_at
		FROM token_reports
		WHERE id = $1
	`

	var (
		report              entities.TokenReport
		holdersJSON         []byte
		concentrationJSON   []byte
		factorsJSON         []byte
		recommendationsJSON []byte
		narrative           sql.NullString
		rawJSON             sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.TokenAddress,
		&report.TokenName,
		&report.TokenSymbol,
		&report.Chain,
		&holdersJSON,
		&concentrationJSON,
		&report.RiskLevel,
		&report.RiskScore,
		&factorsJSON,
		&recommendationsJSON,
		&narrative,
		&rawJSON,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get token report: %w", err)
	}

	if err := json.Unmarshal(holdersJSON, &report.TopHolders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holders: %w", err)
	}
	if err := json.Unmarshal(concentrationJSON, &report.Concentration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal concentration: %w", err)
	}
	if err := json.Unmarshal(factorsJSON, &report.Factors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal factors: %w", err)
	}
	if err := json.Unmarshal(recommendationsJSON, &report.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	report.Narrative = narrative.String
	report.RawJSON = rawJSON.String

	return &report, nil
}

// RecentTokenAddresses returns the distinct token addresses analyzed within
// the lookback window, most recent first. The watchlist worker re-analyzes
// these on its schedule.
func (r *TokenReportRepository) RecentTokenAddresses(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT token_address
		FROM token_reports
		WHERE created_at >= $1
		GROUP BY token_address
		ORDER BY MAX(created_at) DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent token addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("failed to scan token address: %w", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return addresses, nil
}

// WalletReportRepository persists wallet analysis reports in PostgreSQL.
type WalletReportRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewWalletReportRepository creates a new wallet report repository.
func NewWalletReportRepository(db *sqlx.DB, logger *zap.Logger) *WalletReportRepository {
	return &WalletReportRepository{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("wallet-report-repository"),
	}
}

// Create inserts a new wallet report.
func (r *WalletReportRepository) Create(ctx context.Context, report *entities.WalletReport) error {
	ctx, span := r.tracer.Start(ctx, "wallet_report_repo.create", trace.WithAttributes(
		attribute.String("report_id", report.ID.String()),
		attribute.String("wallet_address", report.WalletAddress),
	))
	defer span.End()

	tokensJSON, err := json.Marshal(report.Tokens)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	nftsJSON, err := json.Marshal(report.NFTs)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal nfts: %w", err)
	}
	factorsJSON, err := json.Marshal(report.RiskFactors)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal risk factors: %w", err)
	}
	diversificationJSON, err := json.Marshal(report.Diversification)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal diversification: %w", err)
	}
	recommendationsJSON, err := json.Marshal(report.Recommendations)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	query := `
		INSERT INTO wallet_reports (
			id, wallet_address, chain, total_value_usd, sol_balance,
			token_count, nft_count, tokens, nfts, risk_level, risk_score,
			risk_factors, diversification, recommendations, raw_json,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.WalletAddress,
		report.Chain,
		report.TotalValueUSD,
		report.SolBalance,
		report.TokenCount,
		report.NFTCount,
		tokensJSON,
		nftsJSON,
		report.RiskLevel,
		report.RiskScore,
		factorsJSON,
		diversificationJSON,
		recommendationsJSON,
		nullableText(report.RawJSON),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("failed to create wallet report",
			zap.Error(err),
			zap.String("report_id", report.ID.String()),
			zap.String("wallet_address", report.WalletAddress),
		)
		return fmt.Errorf("failed to create wallet report: %w", err)
	}

	r.logger.Info("wallet report created",
		zap.String("report_id", report.ID.String()),
		zap.String("wallet_address", report.WalletAddress),
		zap.String("risk_level", string(report.RiskLevel)),
	)
	return nil
}

// AttachNarrative sets the narrative on an existing wallet report.
func (r *WalletReportRepository) AttachNarrative(ctx context.Context, id uuid.UUID, narrative string) error {
	ctx, span := r.tracer.Start(ctx, "wallet_report_repo.attach_narrative", trace.WithAttributes(
		attribute.String("report_id", id.String()),
	))
	defer span.End()

	query := `
		UPDATE wallet_reports
		SET narrative = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, narrative, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to attach narrative: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrReportNotFound
	}
	return nil
}

// GetByID fetches one wallet report.
func (r *WalletReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.WalletReport, error) {
	ctx, span := r.tracer.Start(ctx, "wallet_report_repo.get_by_id", trace.WithAttributes(
		attribute.String("report_id", id.String()),
	))
	defer span.End()

	query := `
		SELECT id, wallet_address, chain, total_value_usd, sol_balance,
			token_count, nft_count, tokens, nfts, risk_level, risk_score,
			risk_factors, diversification, recommendations, narrative,
			raw_json, created_at, updated_at
		FROM wallet_reports
		WHERE id = $1
	`

	var (
		report              entities.WalletReport
		tokensJSON          []byte
		nftsJSON            []byte
		factorsJSON         []byte
		diversificationJSON []byte
		recommendationsJSON []byte
		narrative           sql.NullString
		rawJSON             sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.WalletAddress,
		&report.Chain,
		&report.TotalValueUSD,
		&report.SolBalance,
		&report.TokenCount,
		&report.NFTCount,
		&tokensJSON,
		&nftsJSON,
		&report.RiskLevel,
		&report.RiskScore,
		&factorsJSON,
		&diversificationJSON,
		&recommendationsJSON,
		&narrative,
		&rawJSON,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get wallet report: %w", err)
	}

	if err := json.Unmarshal(tokensJSON, &report.Tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tokens: %w", err)
	}
	if err := json.Unmarshal(nftsJSON, &report.NFTs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nfts: %w", err)
	}
	if err := json.Unmarshal(factorsJSON, &report.RiskFactors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk factors: %w", err)
	}
	if err := json.Unmarshal(diversificationJSON, &report.Diversification); err != nil {
		return nil, fmt.Errorf("failed to unmarshal diversification: %w", err)
	}
	if err := json.Unmarshal(recommendationsJSON, &report.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	report.Narrative = narrative.String
	report.RawJSON = rawJSON.String

	return &report, nil
}

func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
