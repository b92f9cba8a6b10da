package notifications

import (
	"context"

	"foodcourt/internal/constants"
	"foodcourt/internal/inventory"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/models"
)

const opsAlertEmail = "ops@foodcourt.local"

// InventoryCriticalHandler is the notifications-side consumer of the
// inventory fanout. It alerts operations over every enabled channel and
// broadcasts to all live streaming subscribers.
type InventoryCriticalHandler struct {
	engine *Engine
	log    logger.Logger
}

func NewInventoryCriticalHandler(engine *Engine, log logger.Logger) *InventoryCriticalHandler {
	return &InventoryCriticalHandler{
		engine: engine,
		log:    log,
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
	metrics.InventoryAlertsTotal.WithLabelValues("notifications-service", action.String()).Inc()

	msg := FormatInventoryCriticalMessage(data, action.String())
	result := h.engine.Send(ctx, TemplateInventoryCritical, msg, SendOptions{
		UserID: constants.BroadcastAllUsers,
		Email:  opsAlertEmail,
	})
	if !result.Success {
		h.log.WarnwCtx(ctx, "Inventory alert partially delivered",
			"product_id", data.ProductID,
			"results", result.Results,
		)
		return nil
	}

	h.log.InfowCtx(ctx, "Inventory alert delivered",
		"product_id", data.ProductID,
		"current_stock", data.CurrentStock,
		"action", action.String(),
	)
	return nil
}
