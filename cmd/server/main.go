// Command server is the Terminwatch web app: doctor appointment slot
// watching for navstevalekara.sk.
//
// Usage:
//
//	terminwatch-server
//	PORT=8080 terminwatch-server

// @title Terminwatch API
// @version 1.0.0
// @description Watches navstevalekara.sk doctor listings for open appointment slots and notifies via Telegram or email. HTML pages manage watchers; JSON endpoints expose health and notified slots.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/ladislavh/terminwatch/internal/config"
	"github.com/ladislavh/terminwatch/internal/db"
	"github.com/ladislavh/terminwatch/internal/maintenance"
	"github.com/ladislavh/terminwatch/internal/notify"
	"github.com/ladislavh/terminwatch/internal/remote"
	"github.com/ladislavh/terminwatch/internal/slot"
	"github.com/ladislavh/terminwatch/internal/watch"
	"github.com/ladislavh/terminwatch/internal/watcher"
	"github.com/ladislavh/terminwatch/internal/web"

	_ "github.com/ladislavh/terminwatch/docs" // swagger docs
)

func main() {
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.IsProduction() {
		logLevel.Set(slog.LevelDebug)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Apply schema migrations
	if err := db.Migrate(ctx, pool.Pool); err != nil {
		logger.Error("Migrations failed", "error", err)
		os.Exit(1)
	}

	// Stores
	watchers := watcher.NewStore(pool.Pool)
	notified := slot.NewNotifiedStore(pool.Pool)

	// Remote client for navstevalekara.sk
	remoteClient := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteReqsPerMin, logger)

	// Notification senders. Email is optional; without Mailjet credentials
	// email watchers fail their sends and keep retrying.
	telegram := notify.NewTelegramSender("", logger)
	email := notify.NewEmailSender("", cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.MailjetSenderEmail, cfg.MailjetSenderName, logger)
	if !cfg.MailjetConfigured() {
		logger.Info("Email notifications disabled (Mailjet not configured)")
	}
	dispatcher := notify.NewDispatcher(telegram, email, logger)

	// Watch engine: one periodic check task per active watcher
	reconciler := watch.NewReconciler(watchers, notified, remoteClient, dispatcher, logger)
	registry := watch.NewRegistry(ctx, reconciler, cfg.CheckInterval, logger)
	defer registry.StopAll()

	if err := registry.Resync(ctx, watchers); err != nil {
		logger.Error("Failed to resync watcher tasks", "error", err)
		os.Exit(1)
	}
	logger.Info("Watcher tasks resynced", "running", registry.Count())

	// Start maintenance tickers (slot cleanup, watcher expiry)
	go maintenance.Start(ctx, pool.Pool, notified, registry, maintenance.DefaultConfig(), logger)

	// Create router
	tmpl, err := web.ParseTemplates()
	if err != nil {
		logger.Error("Failed to parse templates", "error", err)
		os.Exit(1)
	}
	handler := web.NewHandler(pool, watchers, notified, remoteClient, registry, tmpl, logger)
	router := web.NewRouter(handler, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Terminwatch",
			"addr", addr,
			"environment", cfg.Environment,
			"check_interval", cfg.CheckInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
