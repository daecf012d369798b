// cmd/marketplace-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"huusy-marketplace/internal/app"
	"huusy-marketplace/internal/common/auth"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/messaging"
	"huusy-marketplace/internal/common/observability"
	"huusy-marketplace/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("Starting marketplace server...", map[string]interface{}{"environment": cfg.App.Environment})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := app.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("failed to connect dependencies", zap.Error(err))
	}
	defer clients.Close()

	wiring, err := app.Wire(cfg, clients, obs, log)
	if err != nil {
		zapLog.Fatal("failed to wire handlers", zap.Error(err))
	}
	defer wiring.Close()

	if cfg.Messaging.Driver == config.MessagingDriverRabbitMQ && cfg.Messaging.ConsumeInProcess {
		rmq := cfg.Messaging.RabbitMQ
		consumer, err := messaging.NewRabbitMQConsumer(rmq.URL, rmq.Exchange, rmq.Queue, rmq.RoutingKey, rmq.Prefetch, wiring.Dispatcher, log)
		if err != nil {
			zapLog.Fatal("failed to create rabbitmq consumer", zap.Error(err))
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("RabbitMQ consumer stopped", map[string]interface{}{"error": err})
			}
		}()
	}

	validator := auth.NewValidator(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.Audience)
	srv := server.New(cfg, wiring.Handlers, validator, clients.ReadinessChecks(), log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, stopping server...", nil)
	case err := <-errCh:
		log.Error("HTTP server failed", map[string]interface{}{"error": err})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during HTTP shutdown", map[string]interface{}{"error": err})
	}

	log.Info("Marketplace server stopped gracefully", nil)
}
