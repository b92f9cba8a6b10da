package products

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"foodcourt/internal/broker"
	"foodcourt/internal/constants"
	"foodcourt/internal/inventory"
	"foodcourt/internal/logger"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/models"
)

// InventoryPublisher emits critical-stock alerts onto the inventory fanout
// exchange. Like order eventing it is best effort: a broker outage never
// fails the stock mutation that triggered the alert.
type InventoryPublisher struct {
	producer      broker.Producer
	criticalLevel int
	log           logger.Logger
}

func NewInventoryPublisher(producer broker.Producer, log logger.Logger) *InventoryPublisher {
	return &InventoryPublisher{
		producer:      producer,
		criticalLevel: constants.InventoryCriticalLevel,
		log:           log,
	}
}

// CheckInventoryLevel publishes an alert when the product's stock sits at or
// below the critical level. Returns whether an alert went out.
func (p *InventoryPublisher) CheckInventoryLevel(ctx context.Context, product *Product) bool {
	if !inventory.Critical(product.Stock, p.criticalLevel) {
		return false
	}
	return p.PublishInventoryCritical(ctx, product.ID, product.Stock)
}

func (p *InventoryPublisher) PublishInventoryCritical(ctx context.Context, productID string, currentStock int) bool {
	if !p.producer.IsConnected() {
		p.log.WarnwCtx(ctx, "RabbitMQ not connected, skipping inventory alert",
			"product_id", productID,
		)
		metrics.EventsPublishedTotal.WithLabelValues(models.EventTypeInventoryCritical, "skipped").Inc()
		return false
	}

	data := models.InventoryCriticalData{
		ProductID:     productID,
		CurrentStock:  currentStock,
		CriticalLevel: p.criticalLevel,
		Source:        "products-service",
	}

	id := fmt.Sprintf("inventory-critical-%s-%d", productID, time.Now().UnixMilli())
	env, err := models.NewEnvelope(id, models.EventTypeInventoryCritical, data)
	if err != nil {
		p.log.ErrorwCtx(ctx, "Failed to serialize inventory alert", "product_id", productID, "error", err)
		metrics.EventsPublishedTotal.WithLabelValues(models.EventTypeInventoryCritical, "error").Inc()
		return false
	}

	body, err := json.Marshal(env)
	if err != nil {
		p.log.ErrorwCtx(ctx, "Failed to serialize envelope", "product_id", productID, "error", err)
		metrics.EventsPublishedTotal.WithLabelValues(models.EventTypeInventoryCritical, "error").Inc()
		return false
	}

	// Fanout exchanges ignore the routing key.
	err = p.producer.Publish(ctx, constants.ExchangeInventoryCritical, "", broker.Message{
		MessageID:   env.EventID,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.log.ErrorwCtx(ctx, "Failed to publish inventory alert",
			"product_id", productID,
			"event_id", env.EventID,
			"error", err,
		)
		metrics.EventsPublishedTotal.WithLabelValues(models.EventTypeInventoryCritical, "error").Inc()
		return false
	}

	p.log.InfowCtx(ctx, "Published inventory critical alert",
		"event_id", env.EventID,
		"product_id", productID,
		"current_stock", currentStock,
	)
	metrics.EventsPublishedTotal.WithLabelValues(models.EventTypeInventoryCritical, "success").Inc()
	return true
}
