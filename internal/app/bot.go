package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avdnv/exchange-miniapp/internal/bot"
	"github.com/avdnv/exchange-miniapp/internal/config"
	"github.com/avdnv/exchange-miniapp/internal/observability"
	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/avdnv/exchange-miniapp/internal/telegram"
	"go.uber.org/zap"
)

// RunBot bootstraps the Telegram bot process, blocking until shutdown.
func RunBot() error {
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

	tgClient, err := telegram.NewClient(cfg.BotToken, cfg.SendTimeout)
	if err != nil {
		return fmt.Errorf("authorize telegram: %w", err)
	}

	backend := bot.NewBackendClient(cfg.BackendBaseURL, cfg.InternalToken, cfg.SendTimeout)
	coordinator := service.NewCoordinator(backend, tgClient, cfg.SendTimeout)
	b := bot.New(tgClient, coordinator, cfg.WebAppURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("update loop: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
