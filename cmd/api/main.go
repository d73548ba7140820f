// Package main runs the claim verification API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"claimcheck/internal/config"
	hhttp "claimcheck/internal/handler/http"
	"claimcheck/internal/infra/cache"
	"claimcheck/internal/observability/logging"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/usecase/verify"
	"claimcheck/pkg/ratelimit"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	svc, err := buildService(cfg, logger)
	if err != nil {
		logger.Error("failed to build verification service", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler := startMaintenance(cfg, svc, logger)
	defer scheduler.Stop()

	runServer(cfg, hhttp.NewRouter(svc, logger), logger)
}

// buildService wires the verification pipeline from configuration.
func buildService(cfg *config.Config, logger *slog.Logger) (*verify.Service, error) {
	registry, err := config.BuildRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}
	for _, rp := range registry.All() {
		logger.Info("provider registered",
			slog.String("name", rp.Provider.Name()),
			slog.Float64("weight", rp.Weight),
		)
	}

	limiter, err := ratelimit.NewLimiter("verify", cfg.RateLimit,
		ratelimit.WithMetrics(ratelimit.NewPrometheusMetrics(prometheus.DefaultRegisterer)))
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	cacheOpts := []cache.Option{
		cache.WithMetrics(cache.NewPrometheusMetrics(prometheus.DefaultRegisterer)),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cacheOpts = append(cacheOpts, cache.WithSecondary(cache.NewRedisSecondary(client)))
		logger.Info("distributed cache tier enabled", slog.String("addr", cfg.RedisAddr))
	}
	verificationCache := cache.New(cfg.Cache, cacheOpts...)

	tracker := health.New(cfg.Health)
	metrics := verify.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	fanout := verify.NewFanout(cfg.Fanout, registry, tracker, metrics)
	aggregator := verify.NewAggregator(cfg.Aggregator, registry)

	return verify.NewService(limiter, verificationCache, fanout, aggregator, tracker, metrics), nil
}

// startMaintenance schedules periodic cache and rate-limiter housekeeping.
func startMaintenance(cfg *config.Config, svc *verify.Service, logger *slog.Logger) *cron.Cron {
	c := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.MaintenanceInterval)
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		svc.Maintain(ctx)
	}); err != nil {
		logger.Error("failed to schedule maintenance", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	logger.Info("maintenance scheduled", slog.String("interval", cfg.MaintenanceInterval.String()))
	return c
}

// runServer starts the HTTP server and blocks until shutdown.
func runServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Verification requests can legitimately run up to the fan-out
		// deadline; leave headroom for serialization.
		WriteTimeout: cfg.Fanout.OverallTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		return
	}
	logger.Info("server stopped")
}
