package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"foodcourt/internal/broker"
	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/models"
)

// EventPublisher emits order lifecycle events onto the topic exchange.
// Publishing is best effort: a disconnected broker or a failed confirm is
// logged and reported as false, never surfaced to the business operation
// that triggered it.
type EventPublisher struct {
	producer broker.Producer
	log      logger.Logger
}

func NewEventPublisher(producer broker.Producer, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *EventPublisher) PublishOrderCreated(ctx context.Context, order *Order) bool {
	data := models.OrderCreatedData{
		OrderID:         order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		Items:           order.Items,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   order.PaymentMethod,
		CreatedAt:       order.CreatedAt,
	}

	eventID := eventID("order-created", order.ID)
	ok := p.publish(ctx, eventID, models.EventTypeOrderCreated, constants.RoutingKeyOrderCreated, data)
	if ok {
		p.log.InfowCtx(ctx, "Published OrderCreated event",
			"event_id", eventID,
			"order_id", order.ID,
		)
	}
	return ok
}

func (p *EventPublisher) PublishOrderStatusUpdated(ctx context.Context, order *Order, previousStatus models.OrderStatus, notes string) bool {
	data := models.OrderStatusUpdatedData{
		OrderID:        order.ID,
		UserID:         order.UserID,
		PreviousStatus: previousStatus,
		CurrentStatus:  order.Status,
		TotalAmount:    order.TotalAmount,
		Notes:          notes,
		UpdatedAt:      order.UpdatedAt,
	}

	eventID := eventID("order-status-updated", order.ID)
	ok := p.publish(ctx, eventID, models.EventTypeOrderStatusUpdated, constants.RoutingKeyOrderStatusUpdated, data)
	if ok {
		p.log.InfowCtx(ctx, "Published OrderStatusUpdated event",
			"event_id", eventID,
			"order_id", order.ID,
			"previous_status", previousStatus,
			"current_status", order.Status,
		)
	}
	return ok
}

// PublishCustom publishes an arbitrary event type on the orders exchange.
func (p *EventPublisher) PublishCustom(ctx context.Context, eventType, routingKey string, data interface{}) bool {
	id := eventID(routingKey, fmt.Sprintf("%d", time.Now().UnixNano()))
	return p.publish(ctx, id, eventType, routingKey, data)
}

func (p *EventPublisher) publish(ctx context.Context, id, eventType, routingKey string, data interface{}) bool {
	if !p.producer.IsConnected() {
		p.log.WarnwCtx(ctx, "RabbitMQ not connected, skipping event publication",
			"event_type", eventType,
		)
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "skipped").Inc()
		return false
	}

	env, err := models.NewEnvelope(id, eventType, data)
	if err != nil {
		p.log.ErrorwCtx(ctx, "Failed to serialize event", "event_type", eventType, "error", err)
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return false
	}

	body, err := json.Marshal(env)
	if err != nil {
		p.log.ErrorwCtx(ctx, "Failed to serialize envelope", "event_type", eventType, "error", err)
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return false
	}

	err = p.producer.Publish(ctx, constants.ExchangeOrders, routingKey, broker.Message{
		MessageID:   env.EventID,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.log.ErrorwCtx(ctx, "Failed to publish event",
			"event_type", eventType,
			"event_id", env.EventID,
			"error", err,
		)
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return false
	}

	metrics.EventsPublishedTotal.WithLabelValues(eventType, "success").Inc()
	return true
}

// eventID derives a unique id from the event kind, the entity and the publish
// time, avoiding any central sequence.
func eventID(kind, entityID string) string {
	return fmt.Sprintf("%s-%s-%d", kind, entityID, time.Now().UnixMilli())
}
