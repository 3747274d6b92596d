// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamgate/internal/config"
	pg "streamgate/internal/infra/db/postgres"
	"streamgate/internal/infra/logging"
	"streamgate/internal/infra/metrics"
	"streamgate/internal/infra/realtime"
	red "streamgate/internal/infra/redis"
	"streamgate/internal/infra/scheduler"
	"streamgate/internal/infra/web"
	"streamgate/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.RunMigrations(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	codeRepo := pg.NewAccessCodeRepo(pool)
	logRepo := pg.NewUsageLogRepo(pool)

	// ---- Redis rate limiter (optional) ----
	var limiter web.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Info().Msg("rate limiting disabled")
	}

	// ---- Realtime event feed ----
	hub := realtime.NewHub(logger)

	// ---- Use cases ----
	cleanupSvc := usecase.NewCleanupService(codeRepo, logRepo, hub, cfg.CleanupInterval(), logger)
	codeUC := usecase.NewAccessCodeUseCase(codeRepo, logRepo, cleanupSvc, hub, logger)

	// ---- Background cleanup loop (optional) ----
	if interval := cfg.BackgroundCleanupInterval(); interval > 0 {
		sched := scheduler.NewScheduler(interval, cleanupSvc, logger)
		sched.Start(ctx)
		defer sched.Stop()
	}

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.Token, cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(codeUC, cleanupSvc, auth, limiter, web.RateLimitConfig{
		Limit:  cfg.RateLimit.MaxValidation,
		Window: cfg.RateLimit.Window,
	}, hub.Handle, logger)

	// No Read/WriteTimeout here: the admin event feed holds long-lived
	// websocket connections.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
