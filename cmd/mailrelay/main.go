package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/skobu/mailrelay/internal/chatwork"
	"github.com/skobu/mailrelay/internal/config"
	"github.com/skobu/mailrelay/internal/database"
	"github.com/skobu/mailrelay/internal/imapx"
	"github.com/skobu/mailrelay/internal/parser"
	"github.com/skobu/mailrelay/internal/poller"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting mailrelay")

	// Connect to database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed", "driver", cfg.DatabaseDriver)

	// Create components
	manager := imapx.NewManager(cfg.IMAPDialTimeout, logger)
	normalizer := parser.NewNormalizer(logger)
	sender := chatwork.NewClient(chatwork.Config{
		APIToken:    cfg.ChatworkAPIToken,
		BaseURL:     cfg.ChatworkBaseURL,
		MinInterval: cfg.SendMinInterval,
		RateWait:    cfg.RateLimitWait,
	}, logger)

	scheduler := poller.NewScheduler(db, poller.ManagerSource{Manager: manager}, sender, normalizer, logger)

	// Start polling every enabled account
	if err := scheduler.StartAll(ctx); err != nil {
		logger.Error("failed to start pollers", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", "signal", sig)
	scheduler.StopAll()
	manager.ReleaseAll()
	logger.Info("mailrelay stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
