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

	"studyplan-subscription/internal/config"
	"studyplan-subscription/internal/domain/ports/adapter"
	pg "studyplan-subscription/internal/infra/db/postgres"
	"studyplan-subscription/internal/infra/logging"
	"studyplan-subscription/internal/infra/metrics"
	pay "studyplan-subscription/internal/infra/payment"
	red "studyplan-subscription/internal/infra/redis"
	"studyplan-subscription/internal/infra/sched"
	"studyplan-subscription/internal/infra/web"
	"studyplan-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	userRepo := pg.NewUserRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateways ----
	retryClient := pay.NewRetryClient(cfg.Payment.Retry, logger)
	momo := pay.NewMomoGateway(cfg.Payment.Momo, retryClient, logger)
	senpay := pay.NewSenpayGateway(cfg.Payment.Senpay, retryClient, logger)
	gateways := []adapter.PaymentGateway{momo, senpay}
	logger.Info().
		Str("momo_partner", logging.Redact(cfg.Payment.Momo.PartnerCode, cfg.Runtime.Dev)).
		Str("senpay_merchant", logging.Redact(cfg.Payment.Senpay.MerchantID, cfg.Runtime.Dev)).
		Msg("payment gateways configured")

	// ---- Use cases ----
	planUC := usecase.NewSubscriptionPlanUseCase(planRepo)
	paymentUC := usecase.NewPaymentUseCase(payRepo, planRepo, gateways, cfg.Payment, logger)
	activationUC := usecase.NewActivationUseCase(userRepo, txManager, logger)
	webhookUC := usecase.NewWebhookUseCase(payRepo, planRepo, activationUC, gateways, locker, logger)
	userUC := usecase.NewUserUseCase(userRepo, payRepo, planRepo)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL)
	srv := web.NewServer(paymentUC, webhookUC, planUC, userUC, auth, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Background workers ----
	expiry := sched.NewExpiryWorker(cfg.Payment.SweepInterval, payRepo, logger)
	go func() { _ = expiry.Run(ctx) }()

	reconciler := sched.NewPaymentReconciler(
		payRepo, planRepo, activationUC, senpay,
		cfg.Payment.ReconcileInterval, cfg.Payment.ReconcileAfter, logger,
	)
	go func() { _ = reconciler.Run(ctx) }()

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
