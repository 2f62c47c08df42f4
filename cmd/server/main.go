package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api"
	"github.com/ndewijer/Fund-Administration-Backend/internal/config"
	"github.com/ndewijer/Fund-Administration-Backend/internal/database"
	"github.com/ndewijer/Fund-Administration-Backend/internal/logging"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/ndewijer/Fund-Administration-Backend/internal/service"
)

func main() {
	logger := logging.NewLogger("server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	logger.Info().Str("path", cfg.Database.Path).Msg("Connected to database")

	// Tax IDs are stored encrypted when a key is configured
	var fernetKey *fernet.Key
	if cfg.Security.FernetKey != "" {
		fernetKey, err = fernet.DecodeKey(cfg.Security.FernetKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to decode fernet key")
		}
	}

	// Create repositories
	fundRepo := repository.NewFundRepository(db)
	investorRepo := repository.NewInvestorRepository(db, fernetKey)
	commitmentRepo := repository.NewCommitmentRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	eventRepo := repository.NewEventRepository(db)
	positionRepo := repository.NewPositionRepository(db)

	// Create services
	locker := service.NewFundLocker()

	fundService := service.NewFundService(
		fundRepo,
		investorRepo,
		allocationRepo,
		logging.NewLogger("fund"),
	)
	investorService := service.NewInvestorService(
		investorRepo,
		commitmentRepo,
		fundRepo,
		logging.NewLogger("investor"),
	)
	allocationService := service.NewAllocationService(
		db,
		fundRepo,
		investorRepo,
		allocationRepo,
		locker,
		logging.NewLogger("allocation"),
	)
	eventService := service.NewEventService(
		db,
		eventRepo,
		commitmentRepo,
		locker,
		logging.NewLogger("event"),
	)
	waterfallService := service.NewWaterfallService(
		fundRepo,
		positionRepo,
		locker,
		logging.NewLogger("waterfall"),
	)

	// Quarterly management fee events
	feeSchedule := service.NewFeeScheduleService(
		fundService,
		eventService,
		cfg.Scheduler.FeeCronSpec,
		logging.NewLogger("fees"),
	)
	if cfg.Scheduler.FeeEnabled {
		if err := feeSchedule.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start fee scheduler")
		}
		defer feeSchedule.Stop()
	}

	// Create router
	router := api.NewRouter(db, api.Services{
		Fund:       fundService,
		Investor:   investorService,
		Allocation: allocationService,
		Event:      eventService,
		Waterfall:  waterfallService,
	}, cfg, logging.NewLogger("http"))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
