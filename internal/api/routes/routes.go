package routes

import (
	"github.com/solrisk-service/solrisk_service/internal/api/handlers"
	"github.com/solrisk-service/solrisk_service/internal/api/middleware"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/di"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()

	// Global middleware - order matters
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(container.Config.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	// A nil *AssessmentCache must not become a non-nil Pinger interface
	var cachePinger handlers.Pinger
	if container.Cache != nil {
		cachePinger = container.Cache
	}
	healthHandlers := handlers.NewHealthHandlers(container.DB, cachePinger, container.Logger)

	// Health checks
	router.GET("/health", healthHandlers.Health)
	router.GET("/ready", healthHandlers.Ready)
	router.GET("/live", healthHandlers.Live)
	router.GET("/version", healthHandlers.Version)
	router.GET("/metrics", healthHandlers.Metrics())

	tokenHandlers := handlers.NewTokenHandlers(container.TokenService, container.Logger)
	walletHandlers := handlers.NewWalletHandlers(container.WalletService, container.Logger)
	searchHandlers := handlers.NewSearchHandlers(container.TokenService, container.Logger)
	reportHandlers := handlers.NewReportHandlers(container.TokenService, container.WalletService, container.Logger)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		tokens := v1.Group("/tokens")
		{
			tokens.POST("/analyze", tokenHandlers.Analyze)
			tokens.GET("/:address", tokenHandlers.Lookup)
		}

		wallets := v1.Group("/wallets")
		{
			wallets.POST("/analyze", walletHandlers.Analyze)
			wallets.GET("/:address", walletHandlers.Lookup)
		}

		v1.POST("/search", searchHandlers.Search)
		v1.GET("/reports/:id", reportHandlers.Get)
	}

	return router
}
