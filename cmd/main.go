package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solrisk-service/solrisk_service/internal/api/routes"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/config"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/database"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/di"
	"github.com/solrisk-service/solrisk_service/internal/workers/watchlist"
	"github.com/solrisk-service/solrisk_service/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)

	// Initialize database
	dbConfig := database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		MigrationsPath:  cfg.Database.MigrationsPath,
	}

	db, err := database.NewConnection(dbConfig, log.Zap())
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, dbConfig, log.Zap()); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build dependency injection container
	container, err := di.NewContainer(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to create DI container", "error", err)
	}
	defer container.Close()

	// Initialize router with DI container
	router := routes.SetupRoutes(container)

	// Start the watchlist re-analysis scheduler
	var scheduler *watchlist.Scheduler
	if cfg.Watchlist.Enabled {
		scheduler = watchlist.NewScheduler(
			watchlist.Config{
				Schedule:     cfg.Watchlist.Schedule,
				LookbackDays: cfg.Watchlist.LookbackDays,
				MaxTokens:    cfg.Watchlist.MaxTokens,
			},
			container.TokenReportRepo,
			container.TokenService,
			log.Zap(),
		)
		if err := scheduler.Start(); err != nil {
			log.Fatal("Failed to start watchlist scheduler", "error", err)
		}
	}

	// Create server
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Warnw("Error stopping watchlist scheduler", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
