package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/floroz/auctionhouse/internal/adapters/api"
	"github.com/floroz/auctionhouse/internal/adapters/cache"
	"github.com/floroz/auctionhouse/internal/adapters/database"
	"github.com/floroz/auctionhouse/internal/config"
	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
	"github.com/floroz/auctionhouse/migrations"
	"github.com/floroz/auctionhouse/pkg/auth"
	pkgdb "github.com/floroz/auctionhouse/pkg/database"
	pkgevents "github.com/floroz/auctionhouse/pkg/events"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Postgres Connection Pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Unable to parse database config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("Unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if pingErr := pool.Ping(ctx); pingErr != nil {
		logger.Error("Unable to ping database", "error", pingErr)
		os.Exit(1)
	}
	logger.Info("Postgres Connected")

	if cfg.RunMigrations {
		db := stdlib.OpenDBFromPool(pool)
		migrateErr := migrations.Up(db)
		_ = db.Close()
		if migrateErr != nil {
			logger.Error("Migrations failed", "error", migrateErr)
			os.Exit(1)
		}
		logger.Info("Migrations applied")
	}

	// 2. Token validation
	if cfg.JWTPublicKeyPath == "" {
		logger.Error("JWT_PUBLIC_KEY_PATH is not set")
		os.Exit(1)
	}
	publicKey, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		logger.Error("Failed to read JWT public key", "error", err)
		os.Exit(1)
	}
	signer, err := auth.NewSignerFromPublicKey(publicKey, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Failed to load JWT public key", "error", err)
		os.Exit(1)
	}

	// 3. Auction read cache (optional)
	var auctionCache auctions.Cache = auctions.NoopCache{}
	if cfg.RedisURL != "" {
		rdb, redisErr := cache.NewRedisClient(ctx, cfg.RedisURL)
		if redisErr != nil {
			logger.Warn("Redis connection failed, serving reads without cache", "error", redisErr)
		} else {
			defer rdb.Close()
			auctionCache = cache.NewRedisAuctionCache(rdb, cfg.AuctionCacheTTL)
			logger.Info("Redis Connected")
		}
	}

	// 4. Initialize Repositories (Infrastructure Layer)
	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.DBLockTimeout)
	auctionRepo := database.NewPostgresAuctionRepository(pool)
	bidRepo := database.NewPostgresBidRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)

	// 5. Initialize Services (Domain Layer)
	auctionService := auctions.NewAuctionService(auctionRepo, bidRepo, auctionCache, logger)
	approvalService := auctions.NewApprovalService(txManager, auctionRepo, bidRepo, outboxRepo, auctionCache, logger)
	biddingService := bids.NewBiddingService(txManager, auctionRepo, bidRepo, outboxRepo, auctionCache, logger, bids.Options{
		MinBidIncrement: cfg.MinBidIncrement,
		RetryAttempts:   cfg.BidRetryAttempts,
	})

	// 6. Initialize API Handler (ConnectRPC)
	handler := api.NewAuctionServiceHandler(auctionService, approvalService, biddingService)
	path, rpc := api.NewAuctionServiceHandlerRoutes(handler, signer)

	mux := http.NewServeMux()
	mux.Handle(path, rpc)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Use h2c for HTTP/2 without TLS
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// 7. Outbox Relay runs in-process when a broker is configured
	if cfg.RabbitMQURL != "" {
		amqpConn, dialErr := amqp.Dial(cfg.RabbitMQURL)
		if dialErr != nil {
			logger.Error("Failed to connect to RabbitMQ", "error", dialErr)
			os.Exit(1)
		}
		defer amqpConn.Close()
		logger.Info("RabbitMQ Connected")

		publisher, pubErr := pkgevents.NewRabbitMQPublisher(amqpConn)
		if pubErr != nil {
			logger.Error("Failed to create RabbitMQ publisher", "error", pubErr)
			os.Exit(1)
		}
		defer publisher.Close()

		relay := pkgevents.NewOutboxRelay(
			outboxRepo,
			publisher,
			txManager,
			cfg.OutboxBatchSize,
			cfg.OutboxInterval,
			pkgevents.AuctionExchange,
			logger,
		)
		g.Go(func() error {
			logger.Info("Starting Outbox Relay...")
			return relay.Run(gctx)
		})
	} else {
		logger.Warn("RABBITMQ_URL is not set, outbox events stay pending until a worker relays them")
	}

	g.Go(func() error {
		logger.Info("Starting Auction Service API", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
