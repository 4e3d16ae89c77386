package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/config"
	"github.com/openmart/storefront/internal/consumer"
	"github.com/openmart/storefront/internal/messaging"
)

const notificationQueue = "notification.events"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	rabbit, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbit.Close()

	if err := rabbit.DeclareQueue(notificationQueue, "notification.*"); err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}

	messages, err := rabbit.Consume(notificationQueue)
	if err != nil {
		logger.Fatal("failed to consume messages", zap.Error(err))
	}

	notifications := consumer.NewNotificationConsumer(logger)
	go notifications.Run(messages)

	logger.Info("notification service started", zap.String("queue", notificationQueue))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
}
