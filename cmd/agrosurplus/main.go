// Package main запускает HTTP-сервер сервиса перераспределения излишков урожая.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/agrosurplus/internal/config"
	"github.com/mmeshcher/agrosurplus/internal/eventbus"
	"github.com/mmeshcher/agrosurplus/internal/handler"
	"github.com/mmeshcher/agrosurplus/internal/jobs"
	"github.com/mmeshcher/agrosurplus/internal/notify"
	"github.com/mmeshcher/agrosurplus/internal/repository"
	"github.com/mmeshcher/agrosurplus/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var repo service.Repository
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		sugar.Warn("DATABASE_URI is not set, records are kept in memory")
		repo = repository.NewMemoryRepository()
	}

	bus := eventbus.New(cfg.EventMaxSubscribers, logger)
	defer bus.Close()

	svc := service.NewService(repo, bus, logger)
	defer svc.Close()

	var forwarder *notify.Forwarder
	if cfg.EventWebhookURL != "" {
		forwarder = notify.NewForwarder(notify.NewClient(cfg.EventWebhookURL), notify.DefaultQueueSize, logger)
		unsubscribe, err := bus.Subscribe(forwarder.Handle)
		if err != nil {
			sugar.Fatalw("event webhook subscription error", "error", err.Error())
		}
		defer unsubscribe()
	}

	expiryJob := jobs.NewCropExpiryJob(svc, logger)
	if err := expiryJob.Start(cfg.CropExpirySchedule); err != nil {
		sugar.Fatalw("crop expiry job error", "error", err.Error())
	}
	defer expiryJob.Stop()

	h := handler.NewHandler(svc, bus, logger, cfg.EventPingInterval)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}
	server.RegisterOnShutdown(h.CloseStreams)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Пересылка событий во внешний webhook
	if forwarder != nil {
		g.Go(func() error {
			return forwarder.Run(ctx)
		})
	}

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting agrosurplus server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
