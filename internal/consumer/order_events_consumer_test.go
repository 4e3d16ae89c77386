package consumer

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/models"
)

type fakeInvalidator struct {
	invalidated []int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, productID int) {
	f.invalidated = append(f.invalidated, productID)
}

func TestOrderEventsConsumer_InvalidatesEveryProduct(t *testing.T) {
	body, err := json.Marshal(models.OrderEvent{
		Type:    models.EventOrderCreated,
		OrderID: 9,
		Items: []models.OrderItemEvent{
			{ProductID: 1, Quantity: 2},
			{ProductID: 5, Quantity: 1},
		},
	})
	require.NoError(t, err)

	ack := newFakeAcknowledger()
	inv := &fakeInvalidator{}
	c := NewOrderEventsConsumer(inv, zap.NewNop())

	messages := make(chan amqp.Delivery, 1)
	messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
	close(messages)
	c.Run(context.Background(), messages)

	assert.Equal(t, []int{1, 5}, inv.invalidated)
	assert.Equal(t, []uint64{1}, ack.acked)
}

func TestOrderEventsConsumer_DropsMalformedMessages(t *testing.T) {
	ack := newFakeAcknowledger()
	inv := &fakeInvalidator{}
	c := NewOrderEventsConsumer(inv, zap.NewNop())

	messages := make(chan amqp.Delivery, 1)
	messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("{")}
	close(messages)
	c.Run(context.Background(), messages)

	assert.Empty(t, inv.invalidated)
	assert.Equal(t, []uint64{2}, ack.nacked)
	assert.False(t, ack.requeued[2])
}
