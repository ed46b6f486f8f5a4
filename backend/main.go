package main

import (
	"log"
	"mentor/backend/config"
	"mentor/backend/routes"
	"mentor/backend/services"
	"mentor/backend/utils"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}

	// External services
	var gateway services.Gateway
	if cfg.AIGatewayAPIKey != "" {
		lg, err := services.NewLangchainGateway(cfg, logger)
		if err != nil {
			logger.Fatal("Error initializing AI gateway", zap.Error(err))
		}
		gateway = lg
	} else {
		logger.Warn("AI_GATEWAY_API_KEY is not set, AI endpoints are disabled")
	}

	store, err := services.NewFileStore(cfg)
	if err != nil {
		logger.Fatal("Error initializing file storage", zap.Error(err))
	}

	feedback := services.NewFeedbackWriter(db, gateway, logger, cfg.AIFeedbackModel)

	app := routes.NewApp(cfg, logger)
	routes.SetupRoutes(app, db, cfg, routes.Dependencies{
		Logger:   logger,
		Gateway:  gateway,
		Executor: services.NewPistonExecutor(cfg.PistonURL, logger),
		Store:    store,
		Feedback: feedback,
		Tracker:  services.NewFootfallTracker(db, logger),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.String("port", cfg.ServerPort))
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}

	// Let pending feedback jobs finish writing.
	feedback.Wait()
}
