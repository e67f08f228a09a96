package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagemend/pagemend/internal/api_gateway"
	"github.com/pagemend/pagemend/internal/api_gateway/service"
	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/data/mongo"
	"github.com/pagemend/pagemend/internal/data/postgres"
	"github.com/pagemend/pagemend/internal/logger"
	"github.com/pagemend/pagemend/internal/platform/generation"
	"github.com/pagemend/pagemend/internal/platform/messaging/producers"
	"github.com/pagemend/pagemend/internal/platform/persistence"
	"github.com/pagemend/pagemend/internal/platform/storage"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer (publishes candidate generation requests)
	kafkaProducer, err := producers.NewCandidateReqMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize artifact storage and the overlay compositor
	artifactStore, err := storage.NewLocalStore(log, &cfg.Storage)
	if err != nil {
		log.Error("Failed to initialize artifact storage", "error", err)
		os.Exit(1)
	}
	compositor := storage.NewOverlayCompositor(log, artifactStore)

	// Initialize generation backend client
	gatewayClient := generation.NewClient(log, &cfg.Gateway)

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	issueRepo := mongo.NewIssueRepository(log, mongoDB.Database())
	correctionRepo := mongo.NewCorrectionRepository(log, mongoDB.Database())

	// Initialize services
	accountService := service.NewAccountService(accountRepo)
	ledgerService := service.NewLedgerService(log, postgresDB.Pool(), accountRepo, ledgerRepo)
	issueService := service.NewIssueService(log, issueRepo, kafkaProducer)
	workflowService := service.NewWorkflowService(log, &cfg.Workflow, issueRepo, correctionRepo,
		ledgerService, gatewayClient, artifactStore, compositor)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, accountService, ledgerService, issueService, workflowService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
