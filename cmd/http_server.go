package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/auth"
	authPostgres "github.com/veedsify/mightyshare-api/internal/auth/postgres"
	"github.com/veedsify/mightyshare-api/internal/complaint"
	complaintPostgres "github.com/veedsify/mightyshare-api/internal/complaint/postgres"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/payment"
	paymentPostgres "github.com/veedsify/mightyshare-api/internal/payment/postgres"
	"github.com/veedsify/mightyshare-api/internal/paymentgateway"
	"github.com/veedsify/mightyshare-api/internal/referral"
	"github.com/veedsify/mightyshare-api/internal/settlement"
	settlementPostgres "github.com/veedsify/mightyshare-api/internal/settlement/postgres"
	"github.com/veedsify/mightyshare-api/internal/thrift"
	thriftPostgres "github.com/veedsify/mightyshare-api/internal/thrift/postgres"
	"github.com/veedsify/mightyshare-api/internal/transport"
	"github.com/veedsify/mightyshare-api/internal/transport/rest"
	"github.com/veedsify/mightyshare-api/internal/user"
	userPostgres "github.com/veedsify/mightyshare-api/internal/user/postgres"
	"github.com/veedsify/mightyshare-api/internal/wallet"
	walletPostgres "github.com/veedsify/mightyshare-api/internal/wallet/postgres"
	"github.com/veedsify/mightyshare-api/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	handlers := buildHandlers(deps)
	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, handlers, deps.Logger)
}

// buildHandlers wires repositories, services and handlers in dependency
// order. Everything shares one gorm connection and one event bus.
func buildHandlers(deps *Dependencies) rest.Handlers {
	log := deps.Logger
	baseHandler := transport.NewBaseHandler(log)
	eventBus := events.NewEventBus(log)

	// repositories
	authRepo := authPostgres.NewRepository(deps.GormDB)
	userRepo := userPostgres.NewUserRepository(deps.GormDB)
	walletRepo := walletPostgres.NewWalletRepository(deps.GormDB)
	thriftRepo := thriftPostgres.NewThriftRepository(deps.GormDB)
	paymentRepo := paymentPostgres.NewPaymentRepository(deps.GormDB)
	settlementRepo := settlementPostgres.NewSettlementRepository(deps.GormDB)
	complaintRepo := complaintPostgres.NewComplaintRepository(deps.GormDB)

	// auth
	tokenGen := auth.NewJWTTokenGenerator(
		deps.Config.Security.AccessTokenSecret,
		deps.Config.Security.RefreshTokenSecret,
	)
	authService := auth.NewService(authRepo, tokenGen)
	authHandler := auth.NewHandler(authService)

	permissionChecker := &auth.DefaultPermissionChecker{}
	rbac := auth.NewRBACAuthorization(permissionChecker, log)

	// domain services
	walletService := wallet.NewService(walletRepo, log)
	thriftService := thrift.NewService(thriftRepo, log)
	userService := user.NewService(userRepo, walletService, thriftService, deps.Config.Security.BCryptCost, log)

	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:        deps.Config.Gateway.BaseURL,
		APIKey:         deps.Config.Gateway.APIKey,
		BusinessID:     deps.Config.Gateway.BusinessID,
		Currency:       deps.Config.Gateway.Currency,
		RequestTimeout: deps.Config.Gateway.RequestTimeout,
	}, log)

	paymentService := payment.NewService(
		paymentRepo,
		paymentPostgres.NewGormTransactor(deps.GormDB),
		gatewayClient,
		walletService,
		userRepo,
		thriftService,
		eventBus,
		log,
	)

	settlementService := settlement.NewService(
		settlementRepo,
		settlementPostgres.NewGormTransactor(deps.GormDB),
		walletService,
		eventBus,
		log,
	)

	complaintService := complaint.NewService(complaintRepo, log)

	// referral bonuses ride on the registration-paid event
	referralHandler := referral.NewEventHandler(userRepo, walletRepo, deps.Config.Rewards.ReferralBonus, log)
	referralHandler.RegisterEventHandlers(eventBus)

	return rest.Handlers{
		Auth:       authHandler,
		RBAC:       rbac,
		User:       user.NewHandler(baseHandler, userService),
		Thrift:     thrift.NewHandler(baseHandler, thriftService),
		Payment:    payment.NewHandler(baseHandler, paymentService),
		Webhook:    payment.NewWebhookHandler(baseHandler, paymentService),
		Wallet:     wallet.NewHandler(baseHandler, walletService),
		Settlement: settlement.NewHandler(baseHandler, settlementService, permissionChecker),
		Complaint:  complaint.NewHandler(baseHandler, complaintService, permissionChecker),
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
