package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/openmart/storefront/internal/models"
)

// Broker is the slice of the message layer the publisher needs. Satisfied by
// *messaging.RabbitMQ.
type Broker interface {
	Publish(routingKey string, body []byte) error
}

// EventPublisher serializes storefront events and hands them to the broker.
// Callers treat every publish as best-effort: a failed publish never fails
// the operation that produced the event.
type EventPublisher struct {
	broker Broker
}

func NewEventPublisher(broker Broker) *EventPublisher {
	return &EventPublisher{broker: broker}
}

// PublishNotification emits a notification event routed by its type.
func (p *EventPublisher) PublishNotification(event models.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	return p.broker.Publish(event.Type, data)
}

// PublishOrderEvent emits an order lifecycle event routed by its type.
func (p *EventPublisher) PublishOrderEvent(event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return p.broker.Publish(event.Type, data)
}
