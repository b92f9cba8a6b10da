package broker

import (
	"context"

	"foodcourt/pkg/models"
)

// HandlerFunc processes one decoded event. Returning an error routes the
// message through the retry classifier; nil acknowledges it.
type HandlerFunc func(ctx context.Context, env models.Envelope) error

type Message struct {
	MessageID   string
	ContentType string
	Body        []byte
}

// Producer is the slice of the topology manager that publishers depend on,
// kept narrow so tests can substitute a double.
type Producer interface {
	Publish(ctx context.Context, exchange, routingKey string, msg Message) error
	IsConnected() bool
}
