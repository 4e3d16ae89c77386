package consumer

import (
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/models"
)

// fakeAcknowledger records the fate of each delivery tag.
type fakeAcknowledger struct {
	acked    []uint64
	nacked   []uint64
	requeued map[uint64]bool
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{requeued: make(map[uint64]bool)}
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeued[tag] = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func deliver(t *testing.T, c *NotificationConsumer, ack *fakeAcknowledger, tag uint64, body []byte) {
	t.Helper()
	messages := make(chan amqp.Delivery, 1)
	messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body}
	close(messages)
	c.Run(messages)
}

func notificationBody(t *testing.T, eventType, to string) []byte {
	t.Helper()
	body, err := json.Marshal(models.NotificationEvent{
		Type: eventType,
		Data: models.NotificationData{
			To:       to,
			Subject:  "Order Confirmation",
			Body:     "Your order #1 has been placed successfully.",
			Metadata: models.NotificationMetadata{OrderID: 1},
		},
	})
	require.NoError(t, err)
	return body
}

func TestNotificationConsumer_AcksValidEmail(t *testing.T) {
	ack := newFakeAcknowledger()
	c := NewNotificationConsumer(zap.NewNop())

	deliver(t, c, ack, 1, notificationBody(t, models.EventNotificationEmail, "buyer@example.com"))

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestNotificationConsumer_DropsMalformedMessages(t *testing.T) {
	ack := newFakeAcknowledger()
	c := NewNotificationConsumer(zap.NewNop())

	deliver(t, c, ack, 2, []byte("not json"))

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
	assert.False(t, ack.requeued[2], "malformed messages must not be requeued")
}

func TestNotificationConsumer_RequeuesSenderFailures(t *testing.T) {
	ack := newFakeAcknowledger()
	c := NewNotificationConsumer(zap.NewNop())

	// Missing recipient makes the email sender fail.
	deliver(t, c, ack, 3, notificationBody(t, models.EventNotificationEmail, ""))

	assert.Equal(t, []uint64{3}, ack.nacked)
	assert.True(t, ack.requeued[3])
}

func TestNotificationConsumer_AcksUnknownTypes(t *testing.T) {
	ack := newFakeAcknowledger()
	c := NewNotificationConsumer(zap.NewNop())

	deliver(t, c, ack, 4, notificationBody(t, "notification.carrier-pigeon", "buyer@example.com"))

	assert.Equal(t, []uint64{4}, ack.acked, "unknown types are dropped, not requeued forever")
}
