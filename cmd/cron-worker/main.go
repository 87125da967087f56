package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kerjalink/kerjalink-backend/internal/cron"
	"github.com/kerjalink/kerjalink-backend/internal/escrow"
	"github.com/kerjalink/kerjalink-backend/internal/fees"
	"github.com/kerjalink/kerjalink-backend/internal/jobs"
	"github.com/kerjalink/kerjalink-backend/internal/ledger"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/pkg/config"
	"github.com/kerjalink/kerjalink-backend/pkg/db"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/metrics"
	"github.com/kerjalink/kerjalink-backend/pkg/migrate"
	"github.com/kerjalink/kerjalink-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	walletRepo := wallet.NewRepository(conn)
	platformRepo := wallet.NewPlatformRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)
	jobRepo := jobs.NewRepository(conn)
	escrowRepo := escrow.NewRepository(conn)

	feeEngine, err := fees.NewEngine(fees.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create fee engine", err)
		os.Exit(1)
	}

	escrowService, err := escrow.NewService(escrow.ServiceParams{
		TxRunner:     dbClient,
		Repo:         escrowRepo,
		Wallets:      walletRepo,
		Platform:     platformRepo,
		Transactions: ledgerRepo,
		Jobs:         jobRepo,
		Fees:         feeEngine,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	autoApprove, err := cron.NewAutoApproveJob(cron.AutoApproveJobParams{
		Logger: logg,
		Jobs:   jobRepo,
		Escrow: escrowService,
		MaxAge: cfg.Cron.AutoApproveMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-approve job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.CronLockKey("worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(autoApprove),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
