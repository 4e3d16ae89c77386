package consumer

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/models"
)

// ProductInvalidator is the slice of the cached product repository the
// consumer needs.
type ProductInvalidator interface {
	Invalidate(ctx context.Context, productID int)
}

// OrderEventsConsumer watches order lifecycle events and drops stale cached
// product entries. Stock itself was already mutated inside the order
// service's transaction; this consumer only keeps the read cache honest.
type OrderEventsConsumer struct {
	cache  ProductInvalidator
	logger *zap.Logger
}

func NewOrderEventsConsumer(cache ProductInvalidator, logger *zap.Logger) *OrderEventsConsumer {
	return &OrderEventsConsumer{cache: cache, logger: logger}
}

// Run processes deliveries until the channel closes.
func (c *OrderEventsConsumer) Run(ctx context.Context, messages <-chan amqp.Delivery) {
	for msg := range messages {
		var event models.OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			c.logger.Error("failed to parse order event", zap.Error(err))
			msg.Nack(false, false) // don't requeue bad messages
			continue
		}

		for _, item := range event.Items {
			c.cache.Invalidate(ctx, item.ProductID)
		}

		c.logger.Info("invalidated products for order event",
			zap.String("type", event.Type),
			zap.Int("order_id", event.OrderID),
			zap.Int("products", len(event.Items)))
		msg.Ack(false)
	}
}
