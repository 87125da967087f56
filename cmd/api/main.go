package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/kerjalink/kerjalink-backend/api/routes"
	"github.com/kerjalink/kerjalink-backend/internal/fees"
	"github.com/kerjalink/kerjalink-backend/internal/ledger"
	"github.com/kerjalink/kerjalink-backend/internal/reports"
	"github.com/kerjalink/kerjalink-backend/internal/topup"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/internal/withdrawals"
	"github.com/kerjalink/kerjalink-backend/pkg/config"
	"github.com/kerjalink/kerjalink-backend/pkg/db"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/midtrans"
	"github.com/kerjalink/kerjalink-backend/pkg/migrate"
	"github.com/kerjalink/kerjalink-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	gateway, err := midtrans.New(cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	cipher, err := security.NewCipher(cfg.Encryption)
	if err != nil {
		logg.Error(context.Background(), "failed to create cipher", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	walletRepo := wallet.NewRepository(conn)
	platformRepo := wallet.NewPlatformRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)
	feeRepo := fees.NewRepository(conn)
	methodRepo := withdrawals.NewMethodRepository(conn)
	requestRepo := withdrawals.NewRequestRepository(conn)

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	feeEngine, err := fees.NewEngine(feeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create fee engine", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repo:         walletRepo,
		PlatformRepo: platformRepo,
		Transactions: ledgerService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	topupService, err := topup.NewService(topup.ServiceParams{
		TxRunner:     dbClient,
		Gateway:      gateway,
		Wallets:      walletRepo,
		Transactions: ledgerRepo,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create topup service", err)
		os.Exit(1)
	}

	withdrawService, err := withdrawals.NewService(withdrawals.ServiceParams{
		TxRunner:          dbClient,
		Methods:           methodRepo,
		Requests:          requestRepo,
		Wallets:           walletRepo,
		Platform:          platformRepo,
		Transactions:      ledgerRepo,
		Fees:              feeEngine,
		Cipher:            cipher,
		Logger:            logg,
		MaxMethodsPerUser: cfg.Withdraw.MaxMethodsPerUser,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			walletService,
			topupService,
			withdrawService,
			reportsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
