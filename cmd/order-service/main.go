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

	"github.com/openmart/storefront/internal/config"
	"github.com/openmart/storefront/internal/db"
	"github.com/openmart/storefront/internal/discovery"
	"github.com/openmart/storefront/internal/handlers"
	"github.com/openmart/storefront/internal/messaging"
	"github.com/openmart/storefront/internal/publisher"
	"github.com/openmart/storefront/internal/service"
)

const (
	serviceName = "order-service"
	serviceID   = "order-service-1"
	defaultPort = 8082
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

	// The broker is a best-effort collaborator: without it orders still
	// commit, only notifications are skipped.
	var events service.EventPublisher
	rabbit, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, notifications disabled", zap.Error(err))
	} else {
		defer rabbit.Close()
		events = publisher.NewEventPublisher(rabbit)
	}

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		logger.Warn("Consul unavailable, skipping registration", zap.Error(err))
	} else {
		err := consul.Register(discovery.ServiceConfig{
			Name: serviceName,
			ID:   serviceID,
			Port: cfg.HTTPPort,
			Tags: []string{"api", "orders"},
		})
		if err != nil {
			logger.Fatal("failed to register service", zap.Error(err))
		}
		defer consul.Deregister(serviceID)
	}

	orderRepo := db.NewOrderRepository(database)
	userRepo := db.NewUserRepository(database)
	orderService := service.NewOrderService(orderRepo, userRepo, events, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.Logger(logger))

	router.GET("/health", orderHandler.HealthCheck)

	orders := router.Group("/orders", handlers.RequireUser())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PUT("/:id", orderHandler.UpdateOrderStatus)
		orders.DELETE("/:id", orderHandler.CancelOrder)
	}

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
