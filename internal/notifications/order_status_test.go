package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/config"
	"foodcourt/internal/logger"
	"foodcourt/pkg/models"
)

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name     string
		previous models.OrderStatus
		current  models.OrderStatus
		want     bool
	}{
		{"pending to confirmed", models.StatusPending, models.StatusConfirmed, true},
		{"pending to cancelled", models.StatusPending, models.StatusCancelled, true},
		{"confirmed to preparing", models.StatusConfirmed, models.StatusPreparing, true},
		{"preparing to out for delivery", models.StatusPreparing, models.StatusOutForDelivery, true},
		{"out for delivery to delivered", models.StatusOutForDelivery, models.StatusDelivered, true},
		{"skipped step pending to preparing", models.StatusPending, models.StatusPreparing, false},
		{"backwards confirmed to pending", models.StatusConfirmed, models.StatusPending, false},
		{"late delivery override", models.StatusPending, models.StatusDelivered, true},
		{"late cancellation override", models.StatusDelivered, models.StatusCancelled, true},
		{"no-op same status", models.StatusConfirmed, models.StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotify(tt.previous, tt.current))
		})
	}
}

func TestOrderStatusHandlerSkipsSilentTransition(t *testing.T) {
	log := logger.NopLogger()
	registry := NewRegistry(0, log)
	engine := NewEngine(config.ChannelsConfig{Console: true}, registry, log)
	handler := NewOrderStatusHandler(engine, log)

	env, err := models.NewEnvelope("evt-1", models.EventTypeOrderStatusUpdated, models.OrderStatusUpdatedData{
		OrderID:        "ord-1",
		UserID:         "42",
		PreviousStatus: models.StatusPending,
		CurrentStatus:  models.StatusPreparing,
	})
	require.NoError(t, err)

	// Skip-with-success: the message must be acked, not redelivered.
	require.NoError(t, handler.Handle(context.Background(), env))
	stats := engine.Stats()
	assert.Zero(t, stats.Sent)
	assert.Zero(t, stats.Failed)
}

func TestOrderStatusHandlerRejectsWrongEventType(t *testing.T) {
	log := logger.NopLogger()
	engine := NewEngine(config.ChannelsConfig{}, NewRegistry(0, log), log)
	handler := NewOrderStatusHandler(engine, log)

	env, err := models.NewEnvelope("evt-1", models.EventTypeOrderCreated, models.OrderCreatedData{})
	require.NoError(t, err)

	handleErr := handler.Handle(context.Background(), env)
	require.Error(t, handleErr)
}
