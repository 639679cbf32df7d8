package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/api"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/cache"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/config"
	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/history"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/middleware"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/monitoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/ratelimit"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/resilience"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scheduler"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/security"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Start the HTTP server. Configuration is read from the environment and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := monitoring.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(monitoring.NewHandler(os.Stdout, level)))
	logger := monitoring.NewLogger(level)
	gin.SetMode(cfg.GinMode)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(store, "history store")
	slog.Info("History store opened", "backend", cfg.HistoryBackend, "data_dir", cfg.DataDir)

	recorder := history.NewRecorder(store, resilience.StoragePolicy)

	summaries := cache.NewSummaryCache(cfg.AnalyticsCacheTTL)
	defer summaries.Close()
	recorder.Subscribe(summaries.Invalidate)

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, rate limiting falls back to in-process buckets", "addr", cfg.RedisAddr, "error", err)
	}
	defer apperrors.SafeClose(redisClient, "redis")

	metrics := monitoring.NewMetrics()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		PerMinute:       cfg.RatePerMinute,
		BurstMultiplier: ratelimit.DefaultConfig().BurstMultiplier,
	}, metrics)
	defer limiter.Close()

	secCfg := security.DefaultConfig()
	secCfg.AllowedOrigins = cfg.AllowedOrigins
	secCfg.TrustedProxies = cfg.TrustedProxies
	secCfg.RequestTimeout = cfg.RequestTimeout
	secCfg.EnableHSTS = cfg.EnableHSTS

	server, err := api.NewServer(api.Options{
		Recorder:     recorder,
		Backend:      cfg.HistoryBackend,
		Summaries:    summaries,
		Limiter:      limiter,
		Metrics:      metrics,
		Logger:       logger,
		Security:     security.NewMiddleware(secCfg),
		Compression:  middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		AdminSecret:  cfg.AdminJWTSecret,
		ScoringDelay: cfg.ScoringDelay,
		Version:      version,
	})
	if err != nil {
		return err
	}
	if !cfg.AdminEnabled() {
		slog.Warn("ADMIN_JWT_SECRET not set, DELETE /history is disabled")
	}

	sched := scheduler.New(slog.Default())
	if cfg.RetentionDays > 0 {
		job := history.NewRetentionJob(recorder, cfg.RetentionDays)
		if err := sched.AddJob(cfg.RetentionSchedule, job); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

func openStore(cfg *config.Config) (history.Store, error) {
	switch cfg.HistoryBackend {
	case config.BackendMemory:
		return history.NewMemoryStore(), nil
	default:
		store, err := history.OpenSQLite(cfg.DataDir, history.DefaultPoolConfig())
		if err != nil {
			return nil, apperrors.NewStorageError("open history store", err)
		}
		return store, nil
	}
}
