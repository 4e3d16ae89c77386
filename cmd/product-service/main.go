package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/cache"
	"github.com/openmart/storefront/internal/config"
	"github.com/openmart/storefront/internal/consumer"
	"github.com/openmart/storefront/internal/db"
	"github.com/openmart/storefront/internal/discovery"
	"github.com/openmart/storefront/internal/handlers"
	"github.com/openmart/storefront/internal/messaging"
)

const (
	serviceName     = "product-service"
	serviceID       = "product-service-1"
	defaultPort     = 8081
	orderEventQueue = "order.events"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = defaultPort
	}

	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, time.Duration(cfg.CacheTTLSecs)*time.Second)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	rabbit, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbit.Close()

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		logger.Warn("Consul unavailable, skipping registration", zap.Error(err))
	} else {
		err := consul.Register(discovery.ServiceConfig{
			Name: serviceName,
			ID:   serviceID,
			Port: cfg.HTTPPort,
			Tags: []string{"api", "products"},
		})
		if err != nil {
			logger.Fatal("failed to register service", zap.Error(err))
		}
		defer consul.Deregister(serviceID)
	}

	productRepo := db.NewProductRepository(database)
	cachedRepo := db.NewCachedProductRepository(productRepo, redisCache, logger)
	productHandler := handlers.NewProductHandler(cachedRepo, logger)

	// Order events only invalidate cached reads here; stock is mutated
	// transactionally by the order service.
	go startOrderEventsConsumer(rabbit, cachedRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.Logger(logger))

	router.GET("/health", productHandler.HealthCheck)
	router.GET("/products", productHandler.ListProducts)
	router.GET("/products/:id", productHandler.GetProduct)
	router.GET("/products/seller/:sellerId", handlers.RequireUser(), productHandler.ListSellerProducts)
	router.POST("/products", handlers.RequireUser(), productHandler.CreateProduct)
	router.PUT("/products/:id", handlers.RequireUser(), productHandler.UpdateProduct)
	router.DELETE("/products/:id", handlers.RequireUser(), productHandler.DeleteProduct)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("service", serviceName), zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func startOrderEventsConsumer(mq *messaging.RabbitMQ, repo *db.CachedProductRepository, logger *zap.Logger) {
	if err := mq.DeclareQueue(orderEventQueue, "order.*"); err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}

	messages, err := mq.Consume(orderEventQueue)
	if err != nil {
		logger.Fatal("failed to consume messages", zap.Error(err))
	}

	logger.Info("listening for order events", zap.String("queue", orderEventQueue))
	orderEvents := consumer.NewOrderEventsConsumer(repo, logger)
	orderEvents.Run(context.Background(), messages)
}
