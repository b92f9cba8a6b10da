package notifications

import (
	"context"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/logging"
	"foodcourt/pkg/models"
)

// statusAdjacency lists the forward transitions worth telling the customer
// about. Anything else is backend churn.
var statusAdjacency = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:        {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:      {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing:      {models.StatusOutForDelivery, models.StatusCancelled},
	models.StatusOutForDelivery: {models.StatusDelivered, models.StatusCancelled},
}

// ShouldNotify reports whether a transition warrants a customer notification.
// Terminal states always notify regardless of where the order came from, so
// a late cancellation or delivery confirmation is never swallowed.
func ShouldNotify(previous, current models.OrderStatus) bool {
	if current == models.StatusDelivered || current == models.StatusCancelled {
		return true
	}
	for _, next := range statusAdjacency[previous] {
		if next == current {
			return true
		}
	}
	return false
}

// OrderStatusHandler notifies customers about meaningful status changes and
// quietly acknowledges the rest.
type OrderStatusHandler struct {
	engine *Engine
	log    logger.Logger
}

func NewOrderStatusHandler(engine *Engine, log logger.Logger) *OrderStatusHandler {
	return &OrderStatusHandler{
		engine: engine,
		log:    log,
	}
}

func (h *OrderStatusHandler) Handle(ctx context.Context, env models.Envelope) error {
	if env.EventType != models.EventTypeOrderStatusUpdated {
		return errors.ErrValidation.WithDetail("message", "invalid event type: "+env.EventType)
	}

	var data models.OrderStatusUpdatedData
	if err := env.DecodeData(&data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctx = logging.WithOrderID(logging.WithUserID(ctx, data.UserID), data.OrderID)
	if !ShouldNotify(data.PreviousStatus, data.CurrentStatus) {
		h.log.InfowCtx(ctx, "Status transition not notifiable, skipping",
			"previous_status", data.PreviousStatus,
			"current_status", data.CurrentStatus,
		)
		return nil
	}

	result := h.engine.SendOrderStatusUpdated(ctx, data)
	if !result.Success {
		h.log.WarnwCtx(ctx, "Order status notification partially delivered",
			"current_status", data.CurrentStatus,
			"results", result.Results,
		)
		return nil
	}

	h.log.InfowCtx(ctx, "Order status notification delivered",
		"previous_status", data.PreviousStatus,
		"current_status", data.CurrentStatus,
	)
	return nil
}
