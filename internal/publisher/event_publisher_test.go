package publisher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmart/storefront/internal/models"
)

type fakeBroker struct {
	routingKey string
	body       []byte
	err        error
}

func (f *fakeBroker) Publish(routingKey string, body []byte) error {
	f.routingKey = routingKey
	f.body = body
	return f.err
}

func TestPublishNotification_WireFormat(t *testing.T) {
	broker := &fakeBroker{}
	pub := NewEventPublisher(broker)

	err := pub.PublishNotification(models.NotificationEvent{
		Type: models.EventNotificationEmail,
		Data: models.NotificationData{
			To:       "buyer@example.com",
			Subject:  "Order Confirmation",
			Body:     "Your order #42 has been placed successfully.",
			Metadata: models.NotificationMetadata{OrderID: 42},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "notification.email", broker.routingKey)

	// The serialized payload is a wire contract with the notification
	// consumer; field names must not drift.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(broker.body, &decoded))
	assert.Equal(t, "notification.email", decoded["type"])

	data, ok := decoded["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "buyer@example.com", data["to"])
	assert.Equal(t, "Order Confirmation", data["subject"])

	metadata, ok := data["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), metadata["orderId"])
}

func TestPublishOrderEvent_RoutedByType(t *testing.T) {
	broker := &fakeBroker{}
	pub := NewEventPublisher(broker)

	err := pub.PublishOrderEvent(models.OrderEvent{
		Type:    models.EventOrderCancelled,
		OrderID: 7,
		Items:   []models.OrderItemEvent{{ProductID: 3, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, "order.cancelled", broker.routingKey)

	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(broker.body, &decoded))
	assert.Equal(t, 7, decoded.OrderID)
	assert.Equal(t, []models.OrderItemEvent{{ProductID: 3, Quantity: 2}}, decoded.Items)
}

func TestPublish_BrokerErrorSurfaces(t *testing.T) {
	broker := &fakeBroker{err: assert.AnError}
	pub := NewEventPublisher(broker)

	err := pub.PublishNotification(models.NotificationEvent{Type: models.EventNotificationEmail})

	assert.ErrorIs(t, err, assert.AnError)
}
