package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketboard-updater/internal/alert"
	"marketboard-updater/internal/config"
	"marketboard-updater/internal/dispatch"
	"marketboard-updater/internal/provider"
	"marketboard-updater/internal/repository"
	"marketboard-updater/internal/service"
	"marketboard-updater/internal/tracking"

	_ "github.com/go-sql-driver/mysql"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// The consumer drains bucket messages from the NATS work queue and
// runs one update per message. Failed runs are nacked for redelivery.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.MustLoad()
	if cfg.Nats.URL == "" {
		log.Fatal("NATS_URL is required for the consumer")
	}

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

	var marketRepo repository.MarketRepository
	switch cfg.MarketDB.Type {
	case "mongodb", "mongo":
		marketRepo, err = repository.NewMongoDBMarketRepository(
			cfg.MarketDB.MongoURI, cfg.MarketDB.MongoDatabase, cfg.MarketDB.MongoCollection)
	case "postgres", "postgresql":
		marketRepo, err = repository.NewPostgresMarketRepository(cfg.MarketDB.PostgresDSN())
	default:
		marketRepo, err = repository.NewSQLiteMarketRepository(cfg.MarketDB.Path)
	}
	if err != nil {
		log.Fatalf("Failed to initialize market repository: %v", err)
	}
	defer marketRepo.Close()

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

	tracker := tracking.NewRedisTracking(redisClient, cfg.Updater.ErrorCountWindow)

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
	worker := service.NewUpdateWorker(itemRepo, queueRepo, credRepo, completionRepo,
		merge, client, tracker, tracker, alerts, cfg.Updater, cfg.Alert.Channel)

	nc, err := nats.Connect(cfg.Nats.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	dispatcher, err := dispatch.NewNatsDispatcher(nc, cfg.Nats.Stream, cfg.Queue.PublishSubject, cfg.Nats.Durable)
	if err != nil {
		log.Fatalf("Failed to initialize NATS dispatch: %v", err)
	}

	// One bucket at a time; pacing already throttles provider calls.
	sub, err := dispatcher.Subscribe(1, func(msg dispatch.BucketMessage) error {
		log.Printf("Received bucket %d (priority %d, consumer %d, %d items)",
			msg.Bucket, msg.Priority, msg.Consumer, msg.Items)
		updated, failed, err := worker.RunUpdate(context.Background(), msg.Bucket)
		if err != nil {
			return err
		}
		log.Printf("Bucket %d: %d updated, %d failed", msg.Bucket, len(updated), len(failed))
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Drain()

	log.Printf("Consumer listening on %s", cfg.Queue.PublishSubject)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
}
