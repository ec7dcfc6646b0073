package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "storefront/internal/jwt_token"
	"storefront/internal/platform/config"
	"storefront/internal/platform/httpserver"
	"storefront/internal/platform/logger"
	httpmetrics "storefront/internal/platform/metrics"
	"storefront/internal/reconcile/handler"
	"storefront/internal/reconcile/metrics"
	"storefront/internal/reconcile/service"
	"storefront/pkg/platform/middleware/metadata"
	"storefront/pkg/platform/middleware/requestid"
	"storefront/pkg/platform/middleware/requesttime"
)

// main wires the stores, the reconciliation service and the HTTP surface.
// Business logic lives in internal/reconcile.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("storefront exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	infra, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close(log)

	svc, err := service.New(infra.profiles, infra.identity,
		service.WithLogger(log),
		service.WithAuditPublisher(infra.audit),
		service.WithMetrics(metrics.New()),
		service.WithLinkStore(infra.links),
		service.WithThrottleLatch(infra.latch),
		service.WithExistenceChecker(infra.existence),
		service.WithConfig(service.Config{
			FoldEmailCase:       cfg.Reconcile.FoldEmailCase,
			ThrottleLatchTTL:    cfg.Reconcile.ThrottleLatchTTL,
			RecoveryCallbackURL: cfg.Identity.RecoveryURL,
		}),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.Audience)
	h := handler.New(svc, jwtService, jwttoken.NewJWTServiceAdapter(jwtService), log, handler.Config{
		SessionTTL: cfg.Session.TTL,
		AdminToken: cfg.AdminToken,
	})

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	router.Use(httpmetrics.New().Middleware)
	router.Get("/healthz", infra.health)
	router.Handle("/metrics", promhttp.Handler())
	h.Register(router)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting storefront", "addr", cfg.Addr)
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

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("storefront stopped cleanly")
	return nil
}
