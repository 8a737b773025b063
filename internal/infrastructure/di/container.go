package di

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/analysis"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/ai"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/cache"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/config"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/providers"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/repositories"
	"github.com/solrisk-service/solrisk_service/pkg/logger"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Logger *logger.Logger
	ZapLog *zap.Logger

	// Repositories
	TokenReportRepo  *repositories.TokenReportRepository
	WalletReportRepo *repositories.WalletReportRepository

	// External clients
	HeliusClient      *providers.HeliusClient
	MoralisClient     *providers.MoralisClient
	DexScreenerClient *providers.DexScreenerClient
	AIProvider        ai.Provider
	Cache             *cache.AssessmentCache

	// Domain services
	Narrator      *analysis.Narrator
	TokenService  *analysis.TokenService
	WalletService *analysis.WalletService
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, db *sqlx.DB, log *logger.Logger) (*Container, error) {
	zapLog := log.Zap()

	// Repositories
	tokenReportRepo := repositories.NewTokenReportRepository(db, zapLog)
	walletReportRepo := repositories.NewWalletReportRepository(db, zapLog)

	// Upstream clients
	heliusClient := providers.NewHeliusClient(providers.HeliusConfig{
		APIKey:  cfg.Helius.APIKey,
		BaseURL: cfg.Helius.BaseURL,
		Timeout: cfg.Helius.TimeoutDuration(),
	}, zapLog)

	moralisClient := providers.NewMoralisClient(providers.MoralisConfig{
		APIKey:  cfg.Moralis.APIKey,
		BaseURL: cfg.Moralis.BaseURL,
		Network: cfg.Moralis.Network,
		Timeout: cfg.Moralis.TimeoutDuration(),
	}, zapLog)

	dexScreenerClient := providers.NewDexScreenerClient(providers.DexScreenerConfig{
		BaseURL: cfg.DexScreener.BaseURL,
		Timeout: cfg.DexScreener.TimeoutDuration(),
	}, zapLog)

	// Narrative provider
	aiProvider := ai.NewAnthropicProvider(&ai.ProviderConfig{
		APIKey:       cfg.Anthropic.APIKey,
		Model:        cfg.Anthropic.Model,
		MaxTokens:    cfg.Anthropic.MaxTokens,
		Temperature:  cfg.Anthropic.Temperature,
		Timeout:      time.Duration(cfg.Anthropic.Timeout) * time.Second,
		RateLimitRPM: cfg.Anthropic.RateLimitRPM,
	}, zapLog)

	// Lookup cache is optional: without Redis the quick paths recompute
	var lookupCache *cache.AssessmentCache
	if cfg.Redis.Host != "" {
		redisCache, err := cache.NewAssessmentCache(cache.Config{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      time.Duration(cfg.Redis.LookupTTL) * time.Second,
		}, zapLog)
		if err != nil {
			log.Warnw("Redis unavailable, quick lookups will not be cached", "error", err)
		} else {
			lookupCache = redisCache
		}
	}

	// Domain services
	narrator := analysis.NewNarrator(aiProvider, zapLog)

	var tokenCache analysis.LookupCache
	var walletCache analysis.LookupCache
	if lookupCache != nil {
		tokenCache = lookupCache
		walletCache = lookupCache
	}

	tokenService := analysis.NewTokenService(
		heliusClient,
		dexScreenerClient,
		tokenReportRepo,
		narrator,
		tokenCache,
		zapLog,
	)
	walletService := analysis.NewWalletService(
		moralisClient,
		walletReportRepo,
		narrator,
		walletCache,
		zapLog,
	)

	return &Container{
		Config:            cfg,
		DB:                db,
		Logger:            log,
		ZapLog:            zapLog,
		TokenReportRepo:   tokenReportRepo,
		WalletReportRepo:  walletReportRepo,
		HeliusClient:      heliusClient,
		MoralisClient:     moralisClient,
		DexScreenerClient: dexScreenerClient,
		AIProvider:        aiProvider,
		Cache:             lookupCache,
		Narrator:          narrator,
		TokenService:      tokenService,
		WalletService:     walletService,
	}, nil
}

// Close releases container-held resources.
func (c *Container) Close() error {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			return err
		}
	}
	return nil
}
