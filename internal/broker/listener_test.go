package broker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/models"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue []bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeue = append(f.requeue, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func orderCreatedBody(t *testing.T) []byte {
	t.Helper()
	env, err := models.NewEnvelope("evt-1", models.EventTypeOrderCreated, map[string]string{"orderId": "ord-1"})
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return body
}

func TestProcessAcknowledgmentRouting(t *testing.T) {
	malformed := []byte(`{"eventId":`)
	missingFields, err := json.Marshal(models.Envelope{EventType: models.EventTypeOrderCreated})
	require.NoError(t, err)

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		panics      bool
		wantHandled int
		wantAcks    int
		wantNacks   int
		wantRequeue bool
	}{
		{
			name:      "malformed body rejected without requeue",
			body:      malformed,
			wantNacks: 1,
		},
		{
			name:      "invalid envelope rejected without requeue",
			body:      missingFields,
			wantNacks: 1,
		},
		{
			name:        "transient handler error requeued",
			body:        orderCreatedBody(t),
			handlerErr:  errors.ErrTimeout,
			wantHandled: 1,
			wantNacks:   1,
			wantRequeue: true,
		},
		{
			name:        "permanent handler error dropped",
			body:        orderCreatedBody(t),
			handlerErr:  stderrors.New("unknown product"),
			wantHandled: 1,
			wantNacks:   1,
		},
		{
			name:        "panicking handler dropped",
			body:        orderCreatedBody(t),
			panics:      true,
			wantHandled: 1,
			wantNacks:   1,
		},
		{
			name:        "successful handler acked",
			body:        orderCreatedBody(t),
			wantHandled: 1,
			wantAcks:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			handled := 0
			handler := func(ctx context.Context, env models.Envelope) error {
				handled++
				if tt.panics {
					panic("handler bug")
				}
				return tt.handlerErr
			}

			l := NewListener(nil, constants.QueueOrderCreated, handler, logger.NopLogger())
			l.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: tt.body})

			assert.Equal(t, tt.wantHandled, handled)
			assert.Equal(t, tt.wantAcks, ack.acks)
			require.Equal(t, tt.wantNacks, ack.nacks)
			if tt.wantNacks > 0 {
				assert.Equal(t, tt.wantRequeue, ack.requeue[0])
			}
		})
	}
}
