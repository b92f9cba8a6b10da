package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/logging"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/models"
)

// Listener is the per-queue dispatch loop: decode, validate, hand to the
// handler, then ack or nack based on the retry classification. Prefetch 1 on
// the shared channel keeps processing strictly serialized per consumer.
type Listener struct {
	manager *Manager
	queue   string
	handler HandlerFunc
	log     logger.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewListener(manager *Manager, queue string, handler HandlerFunc, log logger.Logger) *Listener {
	return &Listener{
		manager: manager,
		queue:   queue,
		handler: handler,
		log:     log,
		stopped: make(chan struct{}),
	}
}

// Start consumes the queue with manual acknowledgment until the context is
// cancelled, Stop is called, or the delivery channel closes with the
// connection. An in-flight message is always processed to completion.
func (l *Listener) Start(ctx context.Context) error {
	ch, err := l.manager.Channel()
	if err != nil {
		return err
	}

	deliveries, err := ch.Consume(
		l.queue,
		"",    // consumer tag, broker-generated
		false, // manual acknowledgment
		false, false, false, nil,
	)
	if err != nil {
		return err
	}

	l.log.Infow("Started consuming", "queue", l.queue)

	for {
		select {
		case <-ctx.Done():
			l.log.Infow("Stopped consuming", "queue", l.queue, "reason", "context canceled")
			return ctx.Err()
		case <-l.stopped:
			l.log.Infow("Stopped consuming", "queue", l.queue, "reason", "listener stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				l.log.Warnw("Delivery channel closed", "queue", l.queue)
				return nil
			}
			l.process(ctx, d)
		}
	}
}

// Stop halts fetching of new messages. Deliveries already handed to the
// handler finish normally.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
	})
}

func (l *Listener) process(ctx context.Context, d amqp.Delivery) {
	var env models.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		l.log.ErrorwCtx(ctx, "Failed to decode message",
			"queue", l.queue,
			"error", err,
		)
		l.reject(ctx, d, errors.ErrValidation.WithCause(err), "malformed")
		return
	}
	if err := env.Validate(); err != nil {
		l.log.ErrorwCtx(ctx, "Rejecting malformed envelope",
			"queue", l.queue,
			"error", err,
		)
		l.reject(ctx, d, err, "malformed")
		return
	}

	msgCtx := logging.WithEventID(ctx, env.EventID)
	start := time.Now()

	err := l.handle(msgCtx, env)
	latency := time.Since(start)
	eventAge := time.Since(env.Timestamp)

	if err != nil {
		l.log.ErrorwCtx(msgCtx, "Failed to process event",
			"queue", l.queue,
			"event_type", env.EventType,
			"error", err,
			"handler_latency_ms", latency.Milliseconds(),
		)
		if ShouldRetry(err) {
			metrics.EventsConsumedTotal.WithLabelValues(l.queue, "requeued").Inc()
			metrics.MessagesRequeuedTotal.WithLabelValues(l.queue).Inc()
			if nackErr := d.Nack(false, true); nackErr != nil {
				l.log.ErrorwCtx(msgCtx, "Failed to nack message", "queue", l.queue, "error", nackErr)
			}
			l.log.WarnwCtx(msgCtx, "Message requeued for retry", "queue", l.queue)
		} else {
			l.reject(msgCtx, d, err, "permanent")
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		l.log.ErrorwCtx(msgCtx, "Failed to ack message", "queue", l.queue, "error", ackErr)
		return
	}

	metrics.EventsConsumedTotal.WithLabelValues(l.queue, "success").Inc()
	metrics.EventProcessingDuration.WithLabelValues(l.queue, "success").
		Observe(float64(eventAge.Milliseconds()))
	l.log.InfowCtx(msgCtx, "Event processed",
		"queue", l.queue,
		"event_type", env.EventType,
		"processing_time_ms", eventAge.Milliseconds(),
	)
}

func (l *Listener) handle(ctx context.Context, env models.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
			l.log.ErrorwCtx(ctx, "Panic recovered during event processing",
				"queue", l.queue,
				"error", err,
			)
		}
	}()
	return l.handler(ctx, env)
}

func (l *Listener) reject(ctx context.Context, d amqp.Delivery, cause error, reason string) {
	metrics.EventsConsumedTotal.WithLabelValues(l.queue, "rejected").Inc()
	metrics.MessagesDroppedTotal.WithLabelValues(l.queue, reason).Inc()
	if err := d.Nack(false, false); err != nil {
		l.log.ErrorwCtx(ctx, "Failed to reject message", "queue", l.queue, "error", err)
	}
}
