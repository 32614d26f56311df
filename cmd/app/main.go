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

	"github.com/marselbeijing/ispeech-helper/internal/config"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
	"github.com/marselbeijing/ispeech-helper/internal/infra/adapters/identity"
	payAdapters "github.com/marselbeijing/ispeech-helper/internal/infra/adapters/payment"
	pg "github.com/marselbeijing/ispeech-helper/internal/infra/db/postgres"
	"github.com/marselbeijing/ispeech-helper/internal/infra/logging"
	"github.com/marselbeijing/ispeech-helper/internal/infra/metrics"
	red "github.com/marselbeijing/ispeech-helper/internal/infra/redis"
	"github.com/marselbeijing/ispeech-helper/internal/infra/sched"
	"github.com/marselbeijing/ispeech-helper/internal/infra/web"
	"github.com/marselbeijing/ispeech-helper/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs, noop payment provider)")
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
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)
	progressRepo := pg.NewProgressRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	progressCache := red.NewProgressCache(redisClient, cfg.Redis.TTL, logger)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Use cases ----
	progressUC := usecase.NewProgressUseCase(progressRepo, progressCache, tm, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, tm, logger)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	switch {
	case cfg.Runtime.Dev || cfg.Payment.Provider == "noop":
		gateway = payAdapters.NewNoopPaymentGateway()
	case cfg.Payment.Provider == "stars":
		gateway, err = payAdapters.NewStarsGateway(cfg.Payment.BaseURL, cfg.Payment.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("stars gateway")
		}
	default:
		logger.Fatal().Str("provider", cfg.Payment.Provider).Msg("unknown payment provider")
	}
	logger.Info().Str("provider", gateway.Name()).Msg("payment gateway ready")

	purchaseUC := usecase.NewPurchaseUseCase(subUC, gateway, cfg.Payment.ChargeTimeout, logger)

	// ---- Web ----
	verifier := identity.NewTelegramVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataTTL)
	sessions := web.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)
	srv := web.NewServer(progressUC, subUC, purchaseUC, verifier, sessions, rateLimiter, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	// ---- Gauge worker (metrics only; expiry itself is lazy) ----
	worker := sched.NewGaugeWorker(time.Minute, subUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Pool stats ----
	go func() {
		tick := time.NewTicker(30 * time.Second)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
