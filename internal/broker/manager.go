package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/retry"
)

// Manager owns the process-wide RabbitMQ connection and channel and the
// idempotent declaration of the exchange/queue topology. Publishers and
// listeners receive the manager by injection and never dial on their own.
type Manager struct {
	url string
	log logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewManager(url string, log logger.Logger) *Manager {
	return &Manager{
		url: url,
		log: log,
	}
}

// Connect dials the broker, opens the shared channel with prefetch 1 and
// publisher confirms, and asserts the topology. Safe to call again after a
// connection loss; all declarations are idempotent.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() && m.ch != nil {
		return m.declareTopology(m.ch)
	}

	m.log.Info("Connecting to RabbitMQ...")
	conn, err := amqp.Dial(m.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	// Fair dispatch: one unacknowledged message in flight per consumer.
	if err := ch.Qos(constants.ConsumerPrefetch, 0, false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	if err := m.declareTopology(ch); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare topology: %w", err)
	}

	m.conn = conn
	m.ch = ch
	m.watchClose(conn, ch)

	m.log.Infow("RabbitMQ connection and topology setup completed",
		"exchanges", []string{constants.ExchangeOrders, constants.ExchangeInventoryCritical},
		"queues", []string{constants.QueueOrderCreated, constants.QueueOrderStatusUpdated},
	)
	return nil
}

// ConnectWithRetry keeps dialing with exponential backoff. Exhausting the
// policy leaves the service running without eventing; the caller decides how
// loudly to degrade.
func (m *Manager) ConnectWithRetry(ctx context.Context, policy retry.Policy) error {
	attempt := 0
	return retry.Retry(ctx, policy, func() error {
		attempt++
		if attempt > 1 {
			metrics.BrokerReconnectsTotal.Inc()
		}
		err := m.Connect(ctx)
		if err != nil {
			m.log.Warnw("RabbitMQ connection attempt failed",
				"attempt", attempt,
				"error", err,
			)
		}
		return err
	})
}

// topologyChannel is the slice of amqp.Channel the declarations run on, kept
// narrow so a double can assert the declared topology.
type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func (m *Manager) declareTopology(ch topologyChannel) error {
	if err := ch.ExchangeDeclare(
		constants.ExchangeOrders,
		"topic",
		true,  // durable
		false, // auto-delete
		false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", constants.ExchangeOrders, err)
	}

	queueArgs := amqp.Table{
		"x-message-ttl": int32(constants.QueueMessageTTL / time.Millisecond),
		"x-max-retries": int32(constants.QueueMaxRetries),
	}

	bindings := []struct {
		queue      string
		routingKey string
	}{
		{constants.QueueOrderCreated, constants.RoutingKeyOrderCreated},
		{constants.QueueOrderStatusUpdated, constants.RoutingKeyOrderStatusUpdated},
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, queueArgs); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, constants.ExchangeOrders, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}

	if err := ch.ExchangeDeclare(
		constants.ExchangeInventoryCritical,
		"fanout",
		true,
		false,
		false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", constants.ExchangeInventoryCritical, err)
	}

	return nil
}

// BindFanoutQueue asserts a durable subscriber queue on the inventory fanout
// exchange. Routing keys are ignored by fanout routing.
func (m *Manager) BindFanoutQueue(queue string) error {
	ch, err := m.Channel()
	if err != nil {
		return err
	}
	return declareFanoutQueue(ch, queue)
}

func declareFanoutQueue(ch topologyChannel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "", constants.ExchangeInventoryCritical, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}

func (m *Manager) watchClose(conn *amqp.Connection, ch *amqp.Channel) {
	connClose := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClose := ch.NotifyClose(make(chan *amqp.Error, 1))

	go func() {
		var reason *amqp.Error
		select {
		case reason = <-connClose:
		case reason = <-chClose:
		}

		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
			m.ch = nil
		}
		m.mu.Unlock()

		if reason != nil {
			m.log.Warnw("RabbitMQ connection closed", "reason", reason.Error())
		} else {
			m.log.Info("RabbitMQ connection closed")
		}
	}()
}

// Disconnect closes channel then connection. It runs during shutdown, so
// failures are logged and swallowed.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch != nil {
		if err := m.ch.Close(); err != nil {
			m.log.Warnw("Error closing RabbitMQ channel", "error", err)
		}
		m.ch = nil
	}
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.log.Warnw("Error closing RabbitMQ connection", "error", err)
		}
		m.conn = nil
	}
	m.log.Info("RabbitMQ disconnected")
}

func (m *Manager) Channel() (*amqp.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch == nil {
		return nil, errors.ErrNotConnected
	}
	return m.ch, nil
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && !m.conn.IsClosed() && m.ch != nil
}

// Publish sends a persistent message and waits for the broker confirm.
func (m *Manager) Publish(ctx context.Context, exchange, routingKey string, msg Message) error {
	ch, err := m.Channel()
	if err != nil {
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    time.Now(),
			ContentType:  msg.ContentType,
			Body:         msg.Body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", exchange, err)
	}

	return awaitConfirm(ctx, exchange, confirm)
}

// confirmation is the slice of amqp.DeferredConfirmation the publish path
// waits on.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

func awaitConfirm(ctx context.Context, exchange string, confirm confirmation) error {
	waitCtx, cancel := context.WithTimeout(ctx, constants.PublishConfirmAwait)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("publish confirm to %s interrupted: %w", exchange, err)
	}
	if !acked {
		return fmt.Errorf("publish to %s nacked by broker", exchange)
	}
	return nil
}
