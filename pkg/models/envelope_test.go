package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeValidate(t *testing.T) {
	valid := Envelope{
		EventID:   "order-created-abc-1",
		EventType: EventTypeOrderCreated,
		Timestamp: time.Now(),
		Data:      json.RawMessage(`{"orderId":"abc"}`),
	}

	tests := []struct {
		name    string
		mutate  func(e *Envelope)
		wantErr bool
	}{
		{
			name:    "valid envelope",
			mutate:  func(e *Envelope) {},
			wantErr: false,
		},
		{
			name:    "missing event id",
			mutate:  func(e *Envelope) { e.EventID = "" },
			wantErr: true,
		},
		{
			name:    "missing event type",
			mutate:  func(e *Envelope) { e.EventType = "" },
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			mutate:  func(e *Envelope) { e.Timestamp = time.Time{} },
			wantErr: true,
		},
		{
			name:    "missing data",
			mutate:  func(e *Envelope) { e.Data = nil },
			wantErr: true,
		},
		{
			name:    "null data",
			mutate:  func(e *Envelope) { e.Data = json.RawMessage("null") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := valid
			tt.mutate(&env)
			err := env.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewEnvelopeRoundTrip(t *testing.T) {
	data := OrderStatusUpdatedData{
		OrderID:        "ord-1",
		UserID:         "42",
		PreviousStatus: StatusPending,
		CurrentStatus:  StatusConfirmed,
		TotalAmount:    25.50,
	}

	env, err := NewEnvelope("order-status-updated-ord-1-1", EventTypeOrderStatusUpdated, data)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeVersion, env.Version)
	require.NoError(t, env.Validate())

	var decoded OrderStatusUpdatedData
	require.NoError(t, env.DecodeData(&decoded))
	assert.Equal(t, data, decoded)
}

func TestDecodeDataRejectsNonObject(t *testing.T) {
	env := Envelope{
		EventID:   "evt-1",
		EventType: EventTypeOrderCreated,
		Timestamp: time.Now(),
		Data:      json.RawMessage(`"not an object"`),
	}

	var data OrderCreatedData
	assert.Error(t, env.DecodeData(&data))
}
