package consumer

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/models"
)

// NotificationConsumer drains the notification queue and dispatches each
// event to the sender for its type. Messages that fail to parse are dropped
// without requeue; sender failures requeue for retry, so delivery is
// at-least-once and senders must tolerate duplicates.
type NotificationConsumer struct {
	logger  *zap.Logger
	senders map[string]func(models.NotificationData) error
}

func NewNotificationConsumer(logger *zap.Logger) *NotificationConsumer {
	c := &NotificationConsumer{logger: logger}
	c.senders = map[string]func(models.NotificationData) error{
		models.EventNotificationEmail: c.sendEmail,
		models.EventNotificationSMS:   c.sendSMS,
	}
	return c
}

// Run processes deliveries until the channel closes.
func (c *NotificationConsumer) Run(messages <-chan amqp.Delivery) {
	for msg := range messages {
		var event models.NotificationEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			c.logger.Error("failed to parse notification event", zap.Error(err))
			msg.Nack(false, false) // don't requeue bad messages
			continue
		}

		if err := c.handle(event); err != nil {
			c.logger.Error("failed to handle notification",
				zap.String("type", event.Type),
				zap.Error(err))
			msg.Nack(false, true) // requeue for retry
			continue
		}

		msg.Ack(false)
	}
}

func (c *NotificationConsumer) handle(event models.NotificationEvent) error {
	sender, ok := c.senders[event.Type]
	if !ok {
		// Unknown types are logged and acked, not requeued forever.
		c.logger.Warn("unknown notification type", zap.String("type", event.Type))
		return nil
	}
	return sender(event.Data)
}

func (c *NotificationConsumer) sendEmail(data models.NotificationData) error {
	if data.To == "" {
		return fmt.Errorf("email notification has no recipient")
	}

	// TODO: wire an SMTP provider; for now delivery is logged only.
	c.logger.Info("sending email notification",
		zap.String("to", data.To),
		zap.String("subject", data.Subject),
		zap.Int("order_id", data.Metadata.OrderID))
	return nil
}

func (c *NotificationConsumer) sendSMS(data models.NotificationData) error {
	c.logger.Info("sending sms notification",
		zap.String("to", data.To),
		zap.Int("order_id", data.Metadata.OrderID))
	return nil
}
