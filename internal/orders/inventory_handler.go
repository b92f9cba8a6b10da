package orders

import (
	"context"

	"foodcourt/internal/inventory"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/logging"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/models"
)

// InventoryCriticalHandler is the orders-side consumer of the inventory
// fanout. Instead of notifying anyone it restricts what can still be
// ordered: zero stock suspends the product and cancels its pending orders,
// near-zero stock caps the per-order quantity.
type InventoryCriticalHandler struct {
	restrictor Restrictor
	store      Store
	log        logger.Logger
}

func NewInventoryCriticalHandler(restrictor Restrictor, store Store, log logger.Logger) *InventoryCriticalHandler {
	return &InventoryCriticalHandler{
		restrictor: restrictor,
		store:      store,
		log:        log,
	}
}

func (h *InventoryCriticalHandler) Handle(ctx context.Context, env models.Envelope) error {
	if env.EventType != models.EventTypeInventoryCritical {
		return errors.ErrValidation.WithDetail("message", "invalid event type: "+env.EventType)
	}

	var data models.InventoryCriticalData
	if err := env.DecodeData(&data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	action := inventory.Classify(data.CurrentStock)
	metrics.InventoryAlertsTotal.WithLabelValues("orders-service", action.String()).Inc()

	switch action {
	case inventory.ActionSuspendOrders:
		h.log.InfowCtx(ctx, "Product out of stock, restricting orders",
			"product_id", data.ProductID,
		)
		if err := h.restrictor.SuspendProduct(ctx, data.ProductID); err != nil {
			return err
		}
		return h.cancelPendingOrders(ctx, data.ProductID)

	case inventory.ActionLimitOrders:
		h.log.InfowCtx(ctx, "Product stock critically low, limiting orders",
			"product_id", data.ProductID,
			"current_stock", data.CurrentStock,
		)
		return h.restrictor.LimitProduct(ctx, data.ProductID, data.CurrentStock)

	default:
		h.log.DebugwCtx(ctx, "Inventory event below action thresholds",
			"product_id", data.ProductID,
			"current_stock", data.CurrentStock,
		)
		return nil
	}
}

func (h *InventoryCriticalHandler) cancelPendingOrders(ctx context.Context, productID string) error {
	pending, err := h.store.FindPendingByProduct(ctx, productID)
	if err != nil {
		return err
	}

	for _, order := range pending {
		orderCtx := logging.WithOrderID(ctx, order.ID)
		if _, err := h.store.UpdateStatus(ctx, order.ID, models.StatusCancelled, "product out of stock"); err != nil {
			h.log.ErrorwCtx(orderCtx, "Failed to cancel pending order", "error", err)
			continue
		}
		h.log.InfowCtx(orderCtx, "Cancelled pending order for out-of-stock product",
			"product_id", productID,
		)
	}
	return nil
}
