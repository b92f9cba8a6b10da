package orders

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/broker"
	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/models"
)

type publishedMessage struct {
	exchange   string
	routingKey string
	msg        broker.Message
}

type fakeProducer struct {
	connected bool
	err       error
	published []publishedMessage
}

func (p *fakeProducer) Publish(ctx context.Context, exchange, routingKey string, msg broker.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedMessage{exchange: exchange, routingKey: routingKey, msg: msg})
	return nil
}

func (p *fakeProducer) IsConnected() bool { return p.connected }

func testOrder() *Order {
	return &Order{
		ID:          "ord-1",
		UserID:      "42",
		Status:      models.StatusPending,
		TotalAmount: 25.00,
		Items: []models.OrderItem{
			{ProductID: "prod-001", ProductName: "Margherita Pizza", Price: 12.50, Quantity: 2},
		},
		DeliveryAddress: models.DeliveryAddress{Street: "123 Main St", City: "Springfield"},
	}
}

func TestPublishOrderCreated(t *testing.T) {
	producer := &fakeProducer{connected: true}
	publisher := NewEventPublisher(producer, logger.NopLogger())

	ok := publisher.PublishOrderCreated(context.Background(), testOrder())
	require.True(t, ok)
	require.Len(t, producer.published, 1)

	pub := producer.published[0]
	assert.Equal(t, constants.ExchangeOrders, pub.exchange)
	assert.Equal(t, constants.RoutingKeyOrderCreated, pub.routingKey)
	assert.Equal(t, "application/json", pub.msg.ContentType)

	var env models.Envelope
	require.NoError(t, json.Unmarshal(pub.msg.Body, &env))
	require.NoError(t, env.Validate())
	assert.Equal(t, models.EventTypeOrderCreated, env.EventType)
	assert.Equal(t, env.EventID, pub.msg.MessageID)
	assert.Regexp(t, `^order-created-ord-1-\d+$`, env.EventID)

	var data models.OrderCreatedData
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, "ord-1", data.OrderID)
	assert.Equal(t, "42", data.UserID)
	require.NoError(t, data.Validate())
}

func TestPublishOrderStatusUpdated(t *testing.T) {
	producer := &fakeProducer{connected: true}
	publisher := NewEventPublisher(producer, logger.NopLogger())

	order := testOrder()
	order.Status = models.StatusConfirmed

	ok := publisher.PublishOrderStatusUpdated(context.Background(), order, models.StatusPending, "paid")
	require.True(t, ok)
	require.Len(t, producer.published, 1)

	pub := producer.published[0]
	assert.Equal(t, constants.RoutingKeyOrderStatusUpdated, pub.routingKey)

	var env models.Envelope
	require.NoError(t, json.Unmarshal(pub.msg.Body, &env))
	assert.Equal(t, models.EventTypeOrderStatusUpdated, env.EventType)

	var data models.OrderStatusUpdatedData
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, models.StatusPending, data.PreviousStatus)
	assert.Equal(t, models.StatusConfirmed, data.CurrentStatus)
	assert.Equal(t, "paid", data.Notes)
}

func TestPublishSkipsWhenDisconnected(t *testing.T) {
	producer := &fakeProducer{connected: false}
	publisher := NewEventPublisher(producer, logger.NopLogger())

	ok := publisher.PublishOrderCreated(context.Background(), testOrder())
	assert.False(t, ok)
	assert.Empty(t, producer.published)
}

func TestPublishReportsBrokerFailure(t *testing.T) {
	producer := &fakeProducer{connected: true, err: stderrors.New("publish to orders.events not confirmed by broker")}
	publisher := NewEventPublisher(producer, logger.NopLogger())

	ok := publisher.PublishOrderCreated(context.Background(), testOrder())
	assert.False(t, ok)
}
