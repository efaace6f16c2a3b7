package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	restaurantorders "restaurant-orders"
	"restaurant-orders/internal/config"
	"restaurant-orders/internal/database"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/services/cart"
	"restaurant-orders/internal/services/catalog"
	"restaurant-orders/internal/services/checkout"
	"restaurant-orders/internal/services/notification"
	"restaurant-orders/internal/services/order"
	"restaurant-orders/internal/web"
)

func main() {
	var (
		mode           = flag.String("mode", "", "Service mode (api-service, notification-subscriber)")
		port           = flag.Int("port", 0, "HTTP port (overrides config)")
		prefetch       = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
		idempotencyTTL = flag.Duration("idempotency-ttl", 24*time.Hour, "How long checkout idempotency tokens are remembered")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintln(os.Stderr, "Error: --mode flag is required")
		flag.Usage()
		os.Exit(1)
	}

	// Local development credentials live in .env; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	log := logger.New(*mode)

	switch *mode {
	case "api-service":
		runAPIService(cfg, log, *idempotencyTTL)
	case "notification-subscriber":
		runNotificationSubscriber(cfg, log, *prefetch)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q\n", *mode)
		os.Exit(1)
	}
}

func runAPIService(cfg *config.Config, log *logger.Logger, idempotencyTTL time.Duration) {
	requestID := "startup"
	ctx := context.Background()

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		log.Error("db_connection_failed", "Failed to connect to database", requestID, err, nil)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, restaurantorders.Migrations); err != nil {
		log.Error("migrations_failed", "Failed to run migrations", requestID, err, nil)
		os.Exit(1)
	}

	rabbitConn, err := messaging.New(cfg, log)
	if err != nil {
		log.Error("rabbitmq_connection_failed", "Failed to connect to RabbitMQ", requestID, err, nil)
		os.Exit(1)
	}
	defer rabbitConn.Close()

	publisher := messaging.NewPublisher(rabbitConn, log)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
		DB:   cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis_connection_failed", "Failed to connect to Redis", requestID, err, nil)
		os.Exit(1)
	}

	catalogStore := catalog.NewPostgresStore(db)
	cartStore := cart.NewPostgresStore(db)
	orderStore := order.NewPostgresStore(db)
	tokenStore := checkout.NewRedisTokenStore(rdb, idempotencyTTL)

	cartService := cart.NewService(cartStore, catalogStore, log)
	orderService := order.NewService(orderStore, publisher, log)
	coordinator := checkout.NewCoordinator(cartStore, catalogStore, orderStore, tokenStore, publisher, log)

	mux := http.NewServeMux()
	cart.NewHandler(cartService, log).RegisterRoutes(mux)
	checkout.NewHandler(coordinator, log).RegisterRoutes(mux)
	order.NewHandler(orderService, log).RegisterRoutes(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			web.WriteMessage(w, http.StatusServiceUnavailable, "database unavailable", "")
			return
		}
		web.WriteMessage(w, http.StatusOK, "ok", "")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("API service listening on port %d", cfg.HTTP.Port), requestID, map[string]interface{}{
			"port": cfg.HTTP.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Info("graceful_shutdown", "Shutting down API service", requestID, nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_failed", "HTTP server shutdown failed", requestID, err, nil)
	}
}

func runNotificationSubscriber(cfg *config.Config, log *logger.Logger, prefetch int) {
	requestID := "startup"

	rabbitConn, err := messaging.New(cfg, log)
	if err != nil {
		log.Error("rabbitmq_connection_failed", "Failed to connect to RabbitMQ", requestID, err, nil)
		os.Exit(1)
	}
	defer rabbitConn.Close()

	consumer := messaging.NewConsumer(rabbitConn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	subscriber := notification.NewSubscriber(consumer, log)

	if err := subscriber.Start(context.Background()); err != nil {
		log.Error("subscriber_failed", "Notification subscriber failed", requestID, err, nil)
		os.Exit(1)
	}
}
