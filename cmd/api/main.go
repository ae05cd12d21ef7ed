package main

import (
	"fmt"
	"os"

	"persacc/internal/config"
	"persacc/internal/database"
	"persacc/internal/events"
	"persacc/internal/logger"
	"persacc/internal/server"

	_ "persacc/internal/docs" // Import swagger docs
)

// @title           PersAcc Ledger API
// @version         1.0
// @description     Personal accounting ledger: movements, fiscal months, KPIs and month closing.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Static API key. The API is open when no key is configured.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := events.NewPublisher(appConfig.AMQP, logger.Named("events"))
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	svc := server.NewServices(dbManager.DB(), appConfig.Ledger, publisher)
	router := server.NewRouter(svc, server.Options{
		APIKey:  appConfig.APIKey,
		Swagger: true,
	})

	if appConfig.APIKey == "" {
		log.Warn("No API key configured, the API is open")
	}
	log.Infof("Starting PersAcc ledger server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
