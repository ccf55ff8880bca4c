package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/spotlight/backend/internal/app"
	"github.com/anonto42/spotlight/backend/internal/router"
	"github.com/anonto42/spotlight/backend/pkg/config"
	"github.com/anonto42/spotlight/backend/pkg/firebase"
	"github.com/anonto42/spotlight/backend/pkg/logger"
	"github.com/anonto42/spotlight/backend/pkg/telemetry"
	"github.com/anonto42/spotlight/backend/validators"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()
	log := logger.Setup(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Env)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Migrate(ctx); err != nil {
		return err
	}

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware(cfg.ServiceName)))
	e.Use(metrics.Middleware())
	config.SetupMiddleware(e, log)
	if err := router.SetupRoutes(e, cfg, a.Services, firebaseApp); err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	go a.Services.Stories.RunSweeper(ctx, cfg.StorySweepInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "metrics_port", cfg.MetricsPort)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Warn("http shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(sctx); err != nil {
		log.Warn("metrics shutdown failed", "error", err)
	}
	return nil
}
