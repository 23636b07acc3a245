package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go-presence/internal/app"
	"go-presence/internal/config"
	"go-presence/internal/infrastructure/logging"
	queueadapter "go-presence/internal/infrastructure/queue/adapter"
	"go-presence/internal/infrastructure/realtime"
	"go-presence/internal/infrastructure/telemetry"
	"go-presence/internal/pkg/chat/application/task"
	"go-presence/internal/pkg/chat/application/usecase"
	chatcontroller "go-presence/internal/pkg/chat/presentation/controller"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, "go-presence-worker")
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	infra, err := app.Open(startCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer infra.Close()

	if cfg.BusDriver == config.BusDriverLocal {
		logger.Warn("BUS_DRIVER=local: new-message events from the worker reach no api instance")
	}

	// The worker has no sockets of its own; its hub only publishes.
	hub := realtime.NewHub(realtime.NewRouter(), infra.Bus, logger)

	srv, err := queueadapter.NewAsynqServer(queueadapter.ServerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.AsynqConcurrency,
		Queues:      cfg.AsynqQueues,
	}, logger)
	if err != nil {
		return err
	}

	task.RegisterSendMessageTask(srv, usecase.NewSendMessageUseCase(infra.Repo), chatcontroller.NewMessageNotifier(hub), logger)

	logger.Info("worker started", zap.Int("concurrency", cfg.AsynqConcurrency), zap.String("queues", cfg.AsynqQueues))
	return srv.Run(ctx)
}
