// Package app bootstraps the two processes: the HTTP backend and the
// Telegram bot. Both share the config and logging setup; only the wiring
// beyond that differs.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/admins"
	"github.com/avdnv/exchange-miniapp/internal/api"
	"github.com/avdnv/exchange-miniapp/internal/config"
	"github.com/avdnv/exchange-miniapp/internal/db"
	"github.com/avdnv/exchange-miniapp/internal/observability"
	"github.com/avdnv/exchange-miniapp/internal/rates"
	"github.com/avdnv/exchange-miniapp/internal/repository"
	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/avdnv/exchange-miniapp/internal/telegram"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the backend HTTP server, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	var redisClient redis.Cmdable
	if cfg.RedisURL != "" {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		redisClient = client
	}

	tgClient, err := telegram.NewClient(cfg.BotToken, cfg.SendTimeout)
	if err != nil {
		return fmt.Errorf("authorize telegram: %w", err)
	}

	repo := repository.NewRepository(pool)
	directory := admins.NewDirectory(cfg.AdminsFile)
	notifier := service.NewNotifier(directory, repo, tgClient, cfg.SendTimeout)
	orderSvc := service.NewOrderService(repo, repo, directory, notifier)
	rateSvc := rates.NewService(rates.DefaultSource(), repo, redisClient, cfg.RateCacheTTL)

	router := api.NewRouter(cfg, logger, pool, repo, redisClient, orderSvc, rateSvc, directory)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
