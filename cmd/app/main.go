package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "promobank/docs"

	"promobank/internal/config"
	"promobank/internal/db"
	"promobank/internal/logger"
	"promobank/internal/notifier"
	"promobank/internal/server"
)

// @title PromoBank API
// @version 1.0
// @description Balance ledger and promocode redemption service.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey GatewayUserID
// @in header
// @name X-User-ID
func main() {

	logger.Init()
	logger.Info("Starting PromoBank application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	events := notifier.New(cfg.RedisAddr, cfg.NotifyWebhookURL)
	defer events.Close()
	logger.Info("Notifier initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go events.Start(ctx)

	srv := server.New(database, cfg, events)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
