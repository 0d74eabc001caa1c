package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"restaurant-pos/internal/cache"
	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/database/sqlite"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/server"
	"restaurant-pos/internal/services/menu"
	"restaurant-pos/internal/services/notification"
	"restaurant-pos/internal/services/order"
	"restaurant-pos/internal/store"
)

const shutdownTimeout = 10 * time.Second

// migratingStore is a store that owns its schema
type migratingStore interface {
	store.Store
	RunMigrations(ctx context.Context) error
}

func main() {
	var (
		mode     = flag.String("mode", "api", "Service mode (api, notification-subscriber, migrate)")
		port     = flag.Int("port", 0, "HTTP port (overrides HTTP_PORT)")
		prefetch = flag.Int("prefetch", 10, "RabbitMQ prefetch count for notification-subscriber")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.HTTPPort = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": cfg.HTTPPort,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "api":
		err = runAPI(ctx, cfg, log)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	case "migrate":
		err = runMigrate(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// openStore connects to the backend named by DATABASE_URL and applies
// pending migrations
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (migratingStore, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	var db migratingStore
	switch driver {
	case config.DriverPostgres:
		db, err = database.New(ctx, cfg, log)
	case config.DriverSQLite:
		db, err = sqlite.Open(ctx, cfg.SQLiteDSN(), log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("db_connected", fmt.Sprintf("Connected to %s database", driver), "startup", nil)

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func runMigrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	db.Close()
	log.Info("migrations_applied", "Database schema is up to date", "startup", nil)
	return nil
}

func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	var (
		db           migratingStore
		listingCache *cache.RedisCache
		broker       *messaging.Connection
	)

	// each backend retries on its own schedule, so they are dialed together
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		db, err = openStore(gctx, cfg, log)
		return err
	})
	g.Go(func() error {
		listingCache = connectCache(gctx, cfg, log)
		return nil
	})
	g.Go(func() error {
		broker = connectBroker(gctx, cfg, log)
		return nil
	})
	err := g.Wait()

	if listingCache != nil {
		defer listingCache.Close()
	}
	if broker != nil {
		defer broker.Close()
	}
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		menuCache cache.Cache
		publisher order.EventPublisher
	)
	if listingCache != nil {
		menuCache = listingCache
	}
	if broker != nil {
		publisher = messaging.NewPublisher(broker, log)
	}

	router := server.NewRouter(server.Deps{
		Store:  db,
		Menu:   menu.NewService(db, menuCache, log),
		Orders: order.NewService(db, publisher, log),
		Logger: log,
	})
	return server.New(cfg.HTTPPort, router, log).Run(ctx, shutdownTimeout)
}

// connectCache returns nil when no cache is configured or reachable
func connectCache(ctx context.Context, cfg *config.Config, log *logger.Logger) *cache.RedisCache {
	if cfg.Redis.Addr == "" {
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("redis_connection_failed", "Menu listing cache disabled", "startup", err, map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
		return nil
	}

	log.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
		"addr": cfg.Redis.Addr,
		"ttl":  cfg.Redis.TTL.String(),
	})
	return cache.NewRedisCache(client, "pos", cfg.Redis.TTL)
}

// connectBroker returns nil when no broker is configured or reachable
func connectBroker(ctx context.Context, cfg *config.Config, log *logger.Logger) *messaging.Connection {
	if cfg.RabbitMQ.URL == "" {
		return nil
	}

	conn, err := messaging.New(ctx, cfg.RabbitMQ.URL, log)
	if err != nil {
		log.Error("rabbitmq_connection_failed", "Order events disabled", "startup", err, nil)
		return nil
	}
	log.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", nil)
	return conn
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	if cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for notification-subscriber mode")
	}

	conn, err := messaging.New(ctx, cfg.RabbitMQ.URL, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	defer consumer.Close()

	return notification.NewSubscriber(log, os.Stdout).Run(ctx, consumer)
}
