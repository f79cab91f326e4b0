package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/iho/corebank/internal/adapter/http"
	"github.com/iho/corebank/internal/adapter/http/handler"
	memoryRepo "github.com/iho/corebank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/corebank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/corebank/internal/adapter/repository/redis"
	"github.com/iho/corebank/internal/infrastructure/auth"
	"github.com/iho/corebank/internal/infrastructure/config"
	"github.com/iho/corebank/internal/infrastructure/logger"
	"github.com/iho/corebank/internal/infrastructure/metrics"
	"github.com/iho/corebank/internal/infrastructure/postgres"
	"github.com/iho/corebank/internal/infrastructure/redis"
	"github.com/iho/corebank/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	var (
		accountStore usecase.AccountStore
		ledgerStore  usecase.LedgerStore
		healthChecks []handler.HealthCheck
	)

	switch cfg.StoreBackend {
	case "postgres":
		if cfg.MigrationsPath != "" {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		accountStore = postgresRepo.NewAccountStore(pool)
		ledgerStore = postgresRepo.NewLedgerStore(pool)
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name:  "postgres",
			Check: pool.Ping,
		})
	case "memory":
		log.Warn().Msg("using in-memory stores, all state is lost on restart")
		accountStore = memoryRepo.NewAccountStore()
		ledgerStore = memoryRepo.NewLedgerStore()
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	} else {
		idempotencyStore = memoryRepo.NewIdempotencyStore()
	}

	m := metrics.New()
	idGen := postgresRepo.NewULIDGenerator()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	guard := usecase.NewConsistencyGuard(cfg.LockTimeout)
	journal := usecase.NewPendingJournal()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountStore, idGen)
	authUC := usecase.NewAuthUseCase(accountStore, jwtManager)
	statementUC := usecase.NewStatementUseCase(accountStore, ledgerStore)
	reconciliationUC := usecase.NewReconciliationUseCase(accountStore, ledgerStore, journal, log)
	coordinator := usecase.NewTransferCoordinator(
		accountStore,
		ledgerStore,
		guard,
		idempotencyStore,
		idGen,
		journal,
		log,
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUC, m)
	accountHandler := handler.NewAccountHandler(accountUC)
	transferHandler := handler.NewTransferHandler(coordinator, m)
	statementHandler := handler.NewStatementHandler(statementUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationUC, journal, m)
	healthHandler := handler.NewHealthHandler(healthChecks...)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:           authHandler,
		AccountHandler:        accountHandler,
		TransferHandler:       transferHandler,
		StatementHandler:      statementHandler,
		ReconciliationHandler: reconciliationHandler,
		HealthHandler:         healthHandler,
		JWTManager:            jwtManager,
		Logger:                log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	if n := journal.Len(); n > 0 {
		log.Error().Int("pending", n).Msg("shutting down with pending ledger writes")
	}

	log.Info().Msg("server stopped")
}
