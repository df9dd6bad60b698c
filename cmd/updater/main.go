package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"marketboard-updater/internal/alert"
	"marketboard-updater/internal/cache"
	"marketboard-updater/internal/config"
	"marketboard-updater/internal/dispatch"
	"marketboard-updater/internal/handler"
	"marketboard-updater/internal/provider"
	"marketboard-updater/internal/repository"
	"marketboard-updater/internal/router"
	"marketboard-updater/internal/service"
	"marketboard-updater/internal/tracking"

	_ "github.com/go-sql-driver/mysql"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: updater <queue|update <bucket>|stats|serve>")
	os.Exit(2)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
	}
	mode := os.Args[1]

	cfg := config.MustLoad()

	// MySQL holds the tracked items, queue, credentials and traders.
	mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open MySQL: %v", err)
	}
	mysqlDB.SetMaxOpenConns(10)
	mysqlDB.SetMaxIdleConns(5)
	mysqlDB.SetConnMaxLifetime(5 * time.Minute)
	if err := mysqlDB.Ping(); err != nil {
		log.Fatalf("MySQL ping failed: %v", err)
	}
	defer mysqlDB.Close()
	log.Println("MySQL initialized")

	// Market record store, selected by config.
	var marketRepo repository.MarketRepository
	switch cfg.MarketDB.Type {
	case "mongodb", "mongo":
		marketRepo, err = repository.NewMongoDBMarketRepository(
			cfg.MarketDB.MongoURI,
			cfg.MarketDB.MongoDatabase,
			cfg.MarketDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		log.Println("MongoDB market repository initialized")
	case "postgres", "postgresql":
		marketRepo, err = repository.NewPostgresMarketRepository(cfg.MarketDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		log.Println("PostgreSQL market repository initialized")
	default: // sqlite
		marketRepo, err = repository.NewSQLiteMarketRepository(cfg.MarketDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		log.Println("SQLite market repository initialized")
	}
	defer marketRepo.Close()

	// Redis carries the snapshot cache, usage counters and the circuit
	// breaker window shared across worker processes.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("Redis ping failed: %v", err)
	}
	cancel()
	log.Println("Redis client initialized")

	snapshotCache := cache.NewRedisCache(redisClient)
	tracker := tracking.NewRedisTracking(redisClient, cfg.Updater.ErrorCountWindow)

	// NATS bucket dispatch is optional; without it buckets are drained
	// by direct `update <bucket>` invocations.
	var publisher dispatch.Publisher
	if cfg.Nats.URL != "" {
		nc, err := nats.Connect(cfg.Nats.URL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()
		publisher, err = dispatch.NewNatsDispatcher(nc, cfg.Nats.Stream, cfg.Queue.PublishSubject, cfg.Nats.Durable)
		if err != nil {
			log.Fatalf("Failed to initialize NATS dispatch: %v", err)
		}
		log.Println("NATS dispatcher initialized")
	}

	var alerts alert.Sender = alert.NopSender{}
	if cfg.Alert.WebhookURL != "" {
		alerts = alert.NewWebhookSender(cfg.Alert.WebhookURL)
	}

	itemRepo := repository.NewMySQLTrackedItemRepository(mysqlDB)
	queueRepo := repository.NewMySQLWorkUnitRepository(mysqlDB)
	credRepo := repository.NewMySQLCredentialRepository(mysqlDB)
	completionRepo := repository.NewMySQLCompletionRecordRepository(mysqlDB)
	traderRepo := repository.NewMySQLTraderRepository(mysqlDB)

	client := provider.NewHTTPClient(cfg.Updater.ProviderURL, cfg.Updater.ClientTimeout)
	merge := service.NewMergeEngine(marketRepo, traderRepo)

	builder := service.NewQueueBuilder(itemRepo, queueRepo, cfg.Queue, publisher)
	worker := service.NewUpdateWorker(itemRepo, queueRepo, credRepo, completionRepo,
		merge, client, tracker, tracker, alerts, cfg.Updater, cfg.Alert.Channel)
	stats := service.NewStatisticsService(itemRepo, queueRepo, completionRepo, marketRepo,
		snapshotCache, cfg.Queue, cfg.Stats)

	ctx := context.Background()

	switch mode {
	case "queue":
		total, err := builder.BuildQueue(ctx)
		if err != nil {
			log.Fatalf("Queue build failed: %v", err)
		}
		log.Printf("Queued %d items", total)

	case "update":
		if len(os.Args) < 3 {
			usage()
		}
		bucket, err := strconv.Atoi(os.Args[2])
		if err != nil {
			usage()
		}
		updated, failed, err := worker.RunUpdate(ctx, bucket)
		if err != nil {
			log.Fatalf("Update run failed: %v", err)
		}
		log.Printf("Bucket %d: %d updated, %d failed", bucket, len(updated), len(failed))

	case "stats":
		snapshot, err := stats.ComputeAndCacheStatistics(ctx)
		if err != nil {
			log.Fatalf("Statistics run failed: %v", err)
		}
		if snapshot != nil {
			log.Printf("Snapshot cached: %.3f sec/item", snapshot.SecondsPerItem)
		}

	case "serve":
		checks := []handler.HealthCheck{
			{Name: "mysql", Ping: func(ctx context.Context) error { return mysqlDB.PingContext(ctx) }},
			{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "market_store", Ping: func(ctx context.Context) error {
				_, err := marketRepo.Summary(ctx)
				return err
			}},
		}
		serve(cfg, stats, builder, checks)

	default:
		usage()
	}
}

// serve runs the status HTTP server until interrupted.
func serve(cfg *config.Config, stats *service.StatisticsService, builder *service.QueueBuilder, checks []handler.HealthCheck) {
	r := router.New(router.Config{
		Handler:      handler.New(checks...),
		StatsHandler: handler.NewStatsHandler(stats, builder),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Status server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
