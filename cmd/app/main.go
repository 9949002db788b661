package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"content-marketplace/internal/config"
	payAdapters "content-marketplace/internal/infra/adapters/payment"
	"content-marketplace/internal/infra/api"
	pg "content-marketplace/internal/infra/db/postgres"
	"content-marketplace/internal/infra/i18n"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"
	red "content-marketplace/internal/infra/redis"
	"content-marketplace/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		bootLog := logging.New(config.LogConfig{Level: "info"}, *devMode)
		bootLog.Fatal().Err(err).Str("path", *cfgPath).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	txm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepoCacheDecorator(pg.NewUserRepo(pool), redisClient, cfg.Redis.TTL, logger)
	courseRepo := pg.NewCourseRepo(pool)
	accessRepo := pg.NewCourseAccessRepo(pool)
	intentRepo := pg.NewPaymentIntentRepo(pool)

	gateway, err := payAdapters.NewVNPayGateway(cfg.Payment.VNPay)
	if err != nil {
		logger.Fatal().Err(err).Msg("vnpay gateway")
	}

	messages, err := i18n.Default()
	if err != nil {
		logger.Fatal().Err(err).Msg("locales")
	}

	intents := usecase.NewIntentStore(intentRepo, logger)
	entitlements := usecase.NewEntitlementUseCase(userRepo, courseRepo, accessRepo, txm, logger)
	services := api.Services{
		Users:     usecase.NewUserUseCase(userRepo, accessRepo, txm, logger),
		Checkout:  usecase.NewCheckoutUseCase(userRepo, courseRepo, accessRepo, intents, gateway, cfg.Payment.PremiumPrice, messages, logger),
		Intents:   intents,
		Callbacks: usecase.NewCallbackUseCase(gateway, intents, entitlements, logger),
		Stats:     usecase.NewStatsUseCase(userRepo, intentRepo, logger),
	}

	tokens := api.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	srv := api.NewServer(cfg, services, tokens, rateLimiter, logger)
	srv.OnMetricsScrape(func() {
		st := pool.Stat()
		metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
		return
	}
	logger.Info().Msg("bye")
}
