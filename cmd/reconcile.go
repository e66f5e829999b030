package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/payment"
	paymentPostgres "github.com/veedsify/mightyshare-api/internal/payment/postgres"
	"github.com/veedsify/mightyshare-api/internal/paymentgateway"
	"github.com/veedsify/mightyshare-api/internal/referral"
	"github.com/veedsify/mightyshare-api/internal/thrift"
	thriftPostgres "github.com/veedsify/mightyshare-api/internal/thrift/postgres"
	userPostgres "github.com/veedsify/mightyshare-api/internal/user/postgres"
	"github.com/veedsify/mightyshare-api/internal/wallet"
	walletPostgres "github.com/veedsify/mightyshare-api/internal/wallet/postgres"
	"github.com/veedsify/mightyshare-api/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers like the pending-payment reconciler.`,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Start the pending-payment reconciler",
	Long:  `Periodically sweeps payments stuck in PENDING and retries verification against the gateway.`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconciler()
	},
}

var (
	reconcileInterval time.Duration
	reconcileMaxAge   time.Duration
	reconcileBatch    int
)

func startReconciler() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.LoggerWrapper()

	sqlxDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlxDB.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(log)
	userRepo := userPostgres.NewUserRepository(gormDB)
	walletRepo := walletPostgres.NewWalletRepository(gormDB)
	walletService := wallet.NewService(walletRepo, log)
	thriftService := thrift.NewService(thriftPostgres.NewThriftRepository(gormDB), log)

	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:        config.Gateway.BaseURL,
		APIKey:         config.Gateway.APIKey,
		BusinessID:     config.Gateway.BusinessID,
		Currency:       config.Gateway.Currency,
		RequestTimeout: config.Gateway.RequestTimeout,
	}, log)

	paymentService := payment.NewService(
		paymentPostgres.NewPaymentRepository(gormDB),
		paymentPostgres.NewGormTransactor(gormDB),
		gatewayClient,
		walletService,
		userRepo,
		thriftService,
		eventBus,
		log,
	)

	// settlements the reconciler completes still pay referral bonuses
	referralHandler := referral.NewEventHandler(userRepo, walletRepo, config.Rewards.ReferralBonus, log)
	referralHandler.RegisterEventHandlers(eventBus)

	log.Info("pending-payment reconciler started",
		"interval", reconcileInterval,
		"max_age", reconcileMaxAge,
		"batch_size", reconcileBatch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down reconciler", "signal", sig)
			return
		case <-ticker.C:
			settled, err := paymentService.ReconcilePending(ctx, reconcileMaxAge, reconcileBatch)
			if err != nil {
				log.Error("reconcile pass failed", "error", err)
				continue
			}
			if settled > 0 {
				log.Info("reconcile pass complete", "settled", settled)
			}
		}
	}
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileInterval, "interval", 5*time.Minute, "How often to sweep pending payments")
	reconcileCmd.Flags().DurationVar(&reconcileMaxAge, "max-age", 10*time.Minute, "Minimum age before a pending payment is retried")
	reconcileCmd.Flags().IntVar(&reconcileBatch, "batch-size", 100, "Maximum payments per sweep")

	workerCmd.AddCommand(reconcileCmd)

	rootCmd.AddCommand(workerCmd)
}
