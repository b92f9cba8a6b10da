package broker

import (
	"context"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
)

type fakeConfirmation struct {
	acked bool
	err   error
	ctx   context.Context
}

func (f *fakeConfirmation) WaitContext(ctx context.Context) (bool, error) {
	f.ctx = ctx
	return f.acked, f.err
}

func TestAwaitConfirm(t *testing.T) {
	tests := []struct {
		name    string
		acked   bool
		err     error
		wantErr string
	}{
		{name: "broker acked", acked: true},
		{name: "broker nacked", wantErr: "nacked by broker"},
		{name: "wait interrupted", err: context.DeadlineExceeded, wantErr: "interrupted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirm := &fakeConfirmation{acked: tt.acked, err: tt.err}
			err := awaitConfirm(context.Background(), constants.ExchangeOrders, confirm)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}

			// The wait always runs under the confirm deadline.
			_, ok := confirm.ctx.Deadline()
			assert.True(t, ok)
		})
	}
}

type declaredExchange struct {
	kind    string
	durable bool
}

type declaredQueue struct {
	durable bool
	args    string
}

type queueBinding struct {
	queue    string
	key      string
	exchange string
}

type fakeTopologyChannel struct {
	exchanges map[string][]declaredExchange
	queues    map[string][]declaredQueue
	bindings  map[queueBinding]int
}

func newFakeTopologyChannel() *fakeTopologyChannel {
	return &fakeTopologyChannel{
		exchanges: map[string][]declaredExchange{},
		queues:    map[string][]declaredQueue{},
		bindings:  map[queueBinding]int{},
	}
}

func (f *fakeTopologyChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchanges[name] = append(f.exchanges[name], declaredExchange{kind: kind, durable: durable})
	return nil
}

func (f *fakeTopologyChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.queues[name] = append(f.queues[name], declaredQueue{durable: durable, args: fmt.Sprintf("%v", args)})
	return amqp.Queue{Name: name}, nil
}

func (f *fakeTopologyChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings[queueBinding{queue: name, key: key, exchange: exchange}]++
	return nil
}

func TestDeclareTopologyIdempotent(t *testing.T) {
	m := NewManager("amqp://localhost", logger.NopLogger())
	ch := newFakeTopologyChannel()

	require.NoError(t, m.declareTopology(ch))
	require.NoError(t, m.declareTopology(ch))

	// Reconnecting re-issues byte-identical declarations, so the broker
	// treats them as no-ops and no duplicate bindings appear.
	require.Len(t, ch.exchanges, 2)
	for name, decls := range ch.exchanges {
		require.Len(t, decls, 2, name)
		assert.Equal(t, decls[0], decls[1], name)
		assert.True(t, decls[0].durable, name)
	}
	assert.Equal(t, "topic", ch.exchanges[constants.ExchangeOrders][0].kind)
	assert.Equal(t, "fanout", ch.exchanges[constants.ExchangeInventoryCritical][0].kind)

	require.Len(t, ch.queues, 2)
	for name, decls := range ch.queues {
		require.Len(t, decls, 2, name)
		assert.Equal(t, decls[0], decls[1], name)
		assert.True(t, decls[0].durable, name)
		assert.Contains(t, decls[0].args, "x-message-ttl")
	}

	require.Len(t, ch.bindings, 2)
	assert.Equal(t, 2, ch.bindings[queueBinding{
		queue:    constants.QueueOrderCreated,
		key:      constants.RoutingKeyOrderCreated,
		exchange: constants.ExchangeOrders,
	}])
	assert.Equal(t, 2, ch.bindings[queueBinding{
		queue:    constants.QueueOrderStatusUpdated,
		key:      constants.RoutingKeyOrderStatusUpdated,
		exchange: constants.ExchangeOrders,
	}])
}

func TestDeclareFanoutQueue(t *testing.T) {
	ch := newFakeTopologyChannel()

	require.NoError(t, declareFanoutQueue(ch, constants.QueueInventoryCriticalOrders))

	require.Len(t, ch.queues[constants.QueueInventoryCriticalOrders], 1)
	assert.True(t, ch.queues[constants.QueueInventoryCriticalOrders][0].durable)
	assert.Equal(t, 1, ch.bindings[queueBinding{
		queue:    constants.QueueInventoryCriticalOrders,
		key:      "",
		exchange: constants.ExchangeInventoryCritical,
	}])
}
