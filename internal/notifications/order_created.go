package notifications

import (
	"context"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/logging"
	"foodcourt/pkg/models"
)

// OrderCreatedHandler notifies a customer that their order was received.
type OrderCreatedHandler struct {
	engine *Engine
	log    logger.Logger
}

func NewOrderCreatedHandler(engine *Engine, log logger.Logger) *OrderCreatedHandler {
	return &OrderCreatedHandler{
		engine: engine,
		log:    log,
	}
}

func (h *OrderCreatedHandler) Handle(ctx context.Context, env models.Envelope) error {
	if env.EventType != models.EventTypeOrderCreated {
		return errors.ErrValidation.WithDetail("message", "invalid event type: "+env.EventType)
	}

	var data models.OrderCreatedData
	if err := env.DecodeData(&data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctx = logging.WithOrderID(logging.WithUserID(ctx, data.UserID), data.OrderID)
	result := h.engine.SendOrderCreated(ctx, data)
	if !result.Success {
		// Partial delivery is not a processing failure; redelivering the
		// event would double-notify the channels that did succeed.
		h.log.WarnwCtx(ctx, "Order created notification partially delivered",
			"results", result.Results,
		)
		return nil
	}

	h.log.InfowCtx(ctx, "Order created notification delivered",
		"channels", len(result.Results),
	)
	return nil
}
