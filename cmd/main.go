package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tutorlink/internal/approval"
	"tutorlink/internal/bootstrap"
	"tutorlink/internal/config"
	cronpkg "tutorlink/internal/cron"
	"tutorlink/internal/handler"
	"tutorlink/internal/ledger"
	"tutorlink/internal/middleware"
	"tutorlink/internal/payment"
	"tutorlink/internal/pkg/besteffort"
	"tutorlink/internal/pkg/mq"
	"tutorlink/internal/pkg/telegram"
	"tutorlink/internal/reconcile"
	"tutorlink/internal/repository"
	"tutorlink/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db, cfg.App.AdminUserID); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}
	if hasArg("--bootstrap-db") {
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Telegram report channel (direct HTTP client) ---
	reporter := telegram.NewReporter(telegram.NewBotAPI(cfg.Telegram.Token), cfg.Telegram.ReportChatID)
	if !reporter.Enabled() {
		logger.Info("Telegram reports disabled")
	}

	// --- Message bus ---
	var publisher *mq.Publisher
	if cfg.AMQP.URL != "" {
		publisher, err = mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, payment events will not be published", zap.Error(err))
			publisher = nil
		}
	}

	// --- Delivery Deduper (Redis with in-memory fallback) ---
	deduper, dedupeErr := middleware.NewDeliveryDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Payment.DedupTTL,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for delivery dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Payments ---
	gateways := handler.CallbackGateways{
		Wallet: payment.NewWalletGateway(cfg.Payment.Wallet),
		Bank:   payment.NewBankGateway(cfg.Payment.Bank),
		Card:   payment.NewCardGateway(cfg.Payment.Card, nil),
	}
	runner := besteffort.New(logger, 10*time.Second)
	l := ledger.New(db, logger)
	engine := reconcile.New(db, l, reconcile.Options{
		Gateways:  []payment.Gateway{gateways.Wallet, gateways.Bank},
		Card:      gateways.Card,
		Transfer:  cfg.Payment.Transfer,
		App:       cfg.App,
		Publisher: publisher,
		Reporter:  reporter,
		Runner:    runner,
	}, logger)
	approvals := approval.New(db, approval.Options{Reporter: reporter, Runner: runner}, logger)

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	router.Setup(e, router.Services{
		DB:        db,
		Ledger:    l,
		Engine:    engine,
		Approval:  approvals,
		Gateways:  gateways,
		Deduper:   deduper,
		JWTSecret: cfg.JWT.Secret,
		AppURL:    cfg.App.BaseURL,
	}, logger)

	// --- Cron Scheduler ---
	cronRepos := &cronpkg.CronRepos{
		Booking: repository.NewBookingRepository(db),
		Payment: repository.NewPaymentRepository(db),
	}
	scheduler := cronpkg.New(cronRepos, reporter, cfg.Payment.SweepSpec, cfg.Payment.StaleAfter, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start cron scheduler", zap.Error(err))
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting tutorlink server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush background notifications
	runner.Wait()
	if err := publisher.Close(); err != nil {
		logger.Warn("Failed to close publisher", zap.Error(err))
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}
