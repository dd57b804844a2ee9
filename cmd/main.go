package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/archive"
	"github.com/senyabanana/pharma-bid-service/internal/db"
	"github.com/senyabanana/pharma-bid-service/internal/handlers"
	"github.com/senyabanana/pharma-bid-service/internal/notifier"
	"github.com/senyabanana/pharma-bid-service/internal/repository"
	"github.com/senyabanana/pharma-bid-service/internal/router"
	"github.com/senyabanana/pharma-bid-service/internal/router/config"
	"github.com/senyabanana/pharma-bid-service/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsConn, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatalf("error connecting to nats: %v", err)
		}
		defer natsConn.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	productRepo := repository.NewPostgresProductRepository(dbPool)
	marginRepo := repository.NewPostgresMarginRepository(dbPool)
	requestRepo := repository.NewPostgresRequestRepository(dbPool)
	bidRepo := repository.NewPostgresBidRepository(dbPool)
	orderRepo := repository.NewPostgresOrderRepository(dbPool)
	cartRepo := repository.NewPostgresCartRepository(dbPool)
	eventRepo := repository.NewPostgresEventRepository(dbPool)

	broker := notifier.NewBroker(redisClient, natsConn, logger)
	hub := notifier.NewHub(logger)
	bridge := notifier.NewBridge(redisClient, hub, logger)
	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("event bridge stopped: %v", err)
		}
	}()

	if natsConn != nil {
		archiver := archive.NewArchiver(natsConn, eventRepo, logger)
		go func() {
			if err := archiver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("event archiver stopped: %v", err)
			}
		}()
	}

	marginService := services.NewMarginService(marginRepo, time.Duration(cfg.MarginCacheMinutes)*time.Minute)
	requestService := services.NewRequestService(requestRepo, productRepo, broker, logger)
	bidService := services.NewBidService(bidRepo, requestRepo, productRepo, marginService, broker, logger)
	orderService := services.NewOrderService(orderRepo, requestRepo, cartRepo, broker, logger)
	cartService := services.NewCartService(cartRepo, logger)
	cartCoordinator := services.NewCartCoordinator(cartService, time.Duration(cfg.CartDebounceMs)*time.Millisecond, logger)
	defer cartCoordinator.FlushAll()

	expirer := services.NewBidExpirer(
		bidRepo,
		time.Duration(cfg.BidSweepMinutes)*time.Minute,
		time.Duration(cfg.BidMaxAgeHours)*time.Hour,
		logger,
	)
	go expirer.Run(ctx)

	requestHandler := handlers.NewRequestHandler(requestService, logger, 5*time.Second)
	bidHandler := handlers.NewBidHandler(bidService, logger, 5*time.Second)
	orderHandler := handlers.NewOrderHandler(orderService, logger, 5*time.Second)
	cartHandler := handlers.NewCartHandler(cartService, cartCoordinator, logger, 5*time.Second)
	marginHandler := handlers.NewMarginHandler(marginService, logger, 5*time.Second)
	wsHandler := notifier.NewWSHandler(hub, logger)

	routes := router.InitRoutes(requestHandler, bidHandler, orderHandler, cartHandler, marginHandler, wsHandler)

	server := &http.Server{Addr: cfg.ServerAddress, Handler: routes}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
