package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ms-transactions/internal/auth"
	"ms-transactions/internal/config"
	"ms-transactions/internal/database"
	"ms-transactions/internal/database/migrations"
	"ms-transactions/internal/kafka"
	"ms-transactions/internal/logger"
	"ms-transactions/internal/transaction"
	"ms-transactions/internal/transaction/api"
	txdb "ms-transactions/internal/transaction/db"
	txmongo "ms-transactions/internal/transaction/mongo"
	txredis "ms-transactions/internal/transaction/redis"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

// openStore returns the configured backing store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (transaction.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		store, err := txmongo.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Warn("DATABASE", fmt.Sprintf("Could not ensure MongoDB indexes: %v", err))
		}
		return store, func() { _ = store.Close(context.Background()) }, nil

	case config.DriverPostgres:
		if cfg.Store.AutoMigrate {
			if err := migratePostgres(ctx, cfg, log); err != nil {
				return nil, nil, err
			}
		}
		bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return txdb.New(bunDB, log), func() { bunDB.Close() }, nil

	case config.DriverSQLite:
		bunDB, err := database.OpenSQLite(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Store.AutoMigrate {
			if err := txdb.CreateSchema(ctx, bunDB); err != nil {
				bunDB.Close()
				return nil, nil, err
			}
		}
		return txdb.New(bunDB, log), func() { bunDB.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
}

// migratePostgres runs on its own connection; the migrator closes it when done.
func migratePostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	runner := migrations.NewRunner(bunDB, log)
	defer runner.Close()

	return runner.MigrateUp()
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Transaction Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	ctx := context.Background()

	log.Info("APP", fmt.Sprintf("Opening %s transaction store", cfg.Store.Driver))
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open store: %v", err))
	}
	defer closeStore()

	if cfg.Redis.Enabled {
		redisClient, err := txredis.Connect(ctx, cfg.Redis.Addr, log)
		if err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		defer redisClient.Close()
		store = txredis.NewCachedStore(store, redisClient, cfg.Redis.CacheTTL, log)
		log.Info("REDIS", fmt.Sprintf("Transaction cache enabled (ttl %s)", cfg.Redis.CacheTTL))
	}

	var events transaction.EventPublisher
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		events = producer
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))
	}

	service := transaction.NewTransactionService(store, events, log)
	handler := api.NewHandler(service, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(log))

	r.Get("/health", handler.Health)

	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			verifier, err := newVerifier(ctx, cfg.Auth)
			if err != nil {
				log.Fatal("AUTH", err.Error())
			}
			r.Use(auth.Middleware(verifier, log))
			log.Info("AUTH", "JWT middleware applied to transaction routes")
		}
		handler.RegisterRoutes(r)
	})
	log.Info("ROUTER", "Transaction routes registered under /transactions")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Transaction Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Transaction Service shutdown complete")
	}
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (auth.TokenVerifier, error) {
	if cfg.OIDCIssuer != "" {
		return auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	}
	if cfg.HS256Secret != "" {
		return auth.NewHS256Verifier(cfg.HS256Secret), nil
	}
	return nil, errors.New("AUTH_ENABLED requires OIDC_ISSUER or JWT_HS256_SECRET")
}
