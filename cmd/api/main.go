package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "go-presence/cmd/api/router/v1"
	"go-presence/internal/app"
	"go-presence/internal/config"
	"go-presence/internal/infrastructure/auth"
	"go-presence/internal/infrastructure/logging"
	queueadapter "go-presence/internal/infrastructure/queue/adapter"
	"go-presence/internal/infrastructure/realtime"
	"go-presence/internal/infrastructure/telemetry"
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
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, "go-presence-api")
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	metrics, err := telemetry.NewRealtimeMetrics()
	if err != nil {
		return err
	}

	// Connect backends on startup
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	infra, err := app.Open(startCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer infra.Close()

	queue, err := queueadapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = queue.Close() }()

	hub := realtime.NewHub(realtime.NewRouter(), infra.Bus, logger)
	if err := hub.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = hub.Stop() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	socket := chatcontroller.NewChatSocketController(chatcontroller.SocketDeps{
		Repo:             infra.Repo,
		Online:           infra.Online,
		TrackConnections: cfg.PresenceTrackConnections,
		Hub:              hub,
		Metrics:          metrics,
		Logger:           logger,
		InflightTimeout:  cfg.SocketInflightTimeout,
	})

	v1.RegisterRoutes(r, v1.Deps{
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Repo:     infra.Repo,
		Queue:    queue,
		Online:   infra.Online,
		Socket:   socket,
		Health: map[string]v1.Pinger{
			"database": infra.Repo,
			"cache":    infra.Cache,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)

	// Hijacked websockets are not tracked by Shutdown. hub.Stop closes them and
	// Wait lets their disconnect handling reach the shared stores before
	// infra.Close runs.
	_ = hub.Stop()
	if werr := socket.Wait(shutdownCtx); werr != nil {
		logger.Warn("sessions still closing at shutdown", zap.Error(werr))
	}
	return err
}
