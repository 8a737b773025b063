// Package watchlist re-analyzes recently seen tokens on a schedule so
// stored risk reports track holder churn and market moves without anyone
// asking.
package watchlist

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/analysis"
	"go.uber.org/zap"
)

// AddressSource lists the token addresses worth re-analyzing.
type AddressSource interface {
	RecentTokenAddresses(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// Config holds scheduler settings.
type Config struct {
	Schedule     string
	LookbackDays int
	MaxTokens    int
}

// Scheduler periodically re-runs token analyses for the watchlist.
type Scheduler struct {
	config    Config
	addresses AddressSource
	tokens    *analysis.TokenService
	cron      *cron.Cron
	logger    *zap.Logger
}

// NewScheduler creates the watchlist scheduler.
func NewScheduler(config Config, addresses AddressSource, tokens *analysis.TokenService, logger *zap.Logger) *Scheduler {
	if config.LookbackDays <= 0 {
		config.LookbackDays = 7
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 25
	}
	return &Scheduler{
		config:    config,
		addresses: addresses,
		tokens:    tokens,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the cron entry and begins the schedule.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("watchlist scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Int("lookback_days", s.config.LookbackDays),
		zap.Int("max_tokens", s.config.MaxTokens),
	)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("watchlist scheduler stopped")
	return nil
}

// runOnce performs a single sweep. A failing token does not stop the
// sweep; each address is analyzed independently.
func (s *Scheduler) runOnce(ctx context.Context) {
	since := time.Now().UTC().AddDate(0, 0, -s.config.LookbackDays)

	addresses, err := s.addresses.RecentTokenAddresses(ctx, since, s.config.MaxTokens)
	if err != nil {
		s.logger.Error("watchlist sweep failed to list addresses", zap.Error(err))
		return
	}
	if len(addresses) == 0 {
		s.logger.Info("watchlist sweep found no recent tokens")
		return
	}

	s.logger.Info("watchlist sweep starting", zap.Int("tokens", len(addresses)))

	succeeded := 0
	for _, address := range addresses {
		if ctx.Err() != nil {
			s.logger.Warn("watchlist sweep interrupted", zap.Error(ctx.Err()))
			return
		}
		if _, err := s.tokens.Analyze(ctx, address, analysis.DefaultTopN); err != nil {
			s.logger.Warn("watchlist re-analysis failed",
				zap.String("token_address", address),
				zap.Error(err),
			)
			continue
		}
		succeeded++
	}

	s.logger.Info("watchlist sweep complete",
		zap.Int("tokens", len(addresses)),
		zap.Int("succeeded", succeeded),
	)
}
