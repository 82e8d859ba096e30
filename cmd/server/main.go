package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-systems/custodia-backend/internal/adapter/httpapi"
	"github.com/custodia-systems/custodia-backend/internal/adapter/repository/memory"
	"github.com/custodia-systems/custodia-backend/internal/adapter/repository/postgres"
	"github.com/custodia-systems/custodia-backend/internal/config"
	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
	"github.com/custodia-systems/custodia-backend/internal/usecase/approval"
	"github.com/custodia-systems/custodia-backend/internal/usecase/metrics"
	"github.com/custodia-systems/custodia-backend/internal/usecase/pricing"
	"github.com/custodia-systems/custodia-backend/internal/usecase/refdata"
	"github.com/custodia-systems/custodia-backend/internal/usecase/seeder"
	"github.com/custodia-systems/custodia-backend/internal/usecase/userdir"
	"github.com/custodia-systems/custodia-backend/internal/usecase/valuation"
)

func main() {
	// 1. Load config and logger
	config.Load()
	logger.Init(config.Cfg.LogLevel)

	logger.L.Info("Custodia backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET must be set and at least 32 characters")
		os.Exit(1)
	}

	// 2. Initialize Repositories
	var (
		holdingRepo domain.HoldingRepository
		priceRepo   domain.PriceRepository
		userRepo    domain.UserRepository
	)
	switch config.Cfg.StorageBackend {
	case "postgres":
		db, err := postgres.NewDB(config.Cfg.DBConnStr)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		holdingRepo = postgres.NewHoldingRepository(db)
		priceRepo = postgres.NewPriceRepository(db)
		userRepo = postgres.NewUserRepository(db)
		logger.L.Info("Using postgres storage backend")
	case "memory":
		holdingRepo = memory.NewHoldingRepository()
		priceRepo = memory.NewPriceRepository()
		userRepo = memory.NewUserRepository()
		logger.L.Info("Using in-memory storage backend")
	default:
		log.Fatalf("Unknown STORAGE_BACKEND %q (want memory or postgres)", config.Cfg.StorageBackend)
	}

	// 3. Initialize Services (Use Cases)
	approvalService := approval.NewService(holdingRepo)
	pricingService := pricing.NewService(priceRepo)
	valuationService := valuation.NewService(priceRepo)
	metricsService := metrics.NewService(holdingRepo)
	userService := userdir.NewService(userRepo)
	refDataService := refdata.NewService()

	// 4. Seed bootstrap accounts and reference data
	ctx := context.Background()
	bootstrap := []seeder.BootstrapUser{}
	if config.Cfg.AdminPassword != "" {
		bootstrap = append(bootstrap, seeder.BootstrapUser{
			Username: config.Cfg.AdminUsername,
			Password: config.Cfg.AdminPassword,
			Role:     domain.RoleAdmin,
		})
	} else {
		logger.L.Warn("ADMIN_PASSWORD not set, no admin account seeded")
	}
	if err := seeder.NewSeeder(userService, refDataService).Seed(ctx, bootstrap); err != nil {
		log.Fatalf("Failed to seed bootstrap data: %v", err)
	}

	// 5. Start HTTP server
	tokens := httpapi.NewTokenManager(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	apiServer := httpapi.NewServer(
		approvalService,
		pricingService,
		valuationService,
		metricsService,
		userService,
		refDataService,
		holdingRepo,
		tokens,
		config.Cfg.RateLimitBurst,
	)

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	waitForShutdown(server)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.L.Info("Received shutdown signal", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
	logger.L.Info("Server stopped")
}
