package notifications

import (
	"context"
	"fmt"
	"time"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
)

// SendOptions carries per-send routing information to the channel senders.
type SendOptions struct {
	UserID string
	Email  string
	Phone  string
}

// ChannelSender delivers one rendered message over one transport.
type ChannelSender interface {
	Name() string
	Send(ctx context.Context, msg Message, opts SendOptions) error
}

const (
	ChannelConsole   = "console"
	ChannelEmail     = "email"
	ChannelSMS       = "sms"
	ChannelPush      = "push"
	ChannelStreaming = "streaming"
)

// simulateLatency stands in for the real provider round trip. It honors
// cancellation so a dying consumer does not hang on a pretend API call.
func simulateLatency(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.ErrTimeout.WithCause(ctx.Err())
	case <-timer.C:
		return nil
	}
}

type ConsoleSender struct {
	log logger.Logger
}

func NewConsoleSender(log logger.Logger) *ConsoleSender {
	return &ConsoleSender{log: log}
}

func (s *ConsoleSender) Name() string { return ChannelConsole }

func (s *ConsoleSender) Send(ctx context.Context, msg Message, opts SendOptions) error {
	s.log.InfowCtx(ctx, "CONSOLE NOTIFICATION",
		"title", msg.Title,
		"body", msg.Body,
		"target_user", opts.UserID,
	)
	return nil
}

// EmailSender simulates an email provider. There is no real SMTP hookup, the
// transport only logs the would-be delivery.
type EmailSender struct {
	log logger.Logger
}

func NewEmailSender(log logger.Logger) *EmailSender {
	return &EmailSender{log: log}
}

func (s *EmailSender) Name() string { return ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, msg Message, opts SendOptions) error {
	if err := simulateLatency(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	to := opts.Email
	if to == "" {
		to = fmt.Sprintf("user-%s@foodcourt.local", opts.UserID)
	}
	s.log.InfowCtx(ctx, "Email sent",
		"to", to,
		"subject", msg.Title,
	)
	return nil
}

type SMSSender struct {
	log logger.Logger
}

func NewSMSSender(log logger.Logger) *SMSSender {
	return &SMSSender{log: log}
}

func (s *SMSSender) Name() string { return ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, msg Message, opts SendOptions) error {
	if err := simulateLatency(ctx, 50*time.Millisecond); err != nil {
		return err
	}
	s.log.InfowCtx(ctx, "SMS sent",
		"to_user", opts.UserID,
		"phone", opts.Phone,
		"title", msg.Title,
	)
	return nil
}

type PushSender struct {
	log logger.Logger
}

func NewPushSender(log logger.Logger) *PushSender {
	return &PushSender{log: log}
}

func (s *PushSender) Name() string { return ChannelPush }

func (s *PushSender) Send(ctx context.Context, msg Message, opts SendOptions) error {
	if err := simulateLatency(ctx, 30*time.Millisecond); err != nil {
		return err
	}
	s.log.InfowCtx(ctx, "Push notification sent",
		"to_user", opts.UserID,
		"title", msg.Title,
	)
	return nil
}

// StreamingSender fans the message out through the live connection registry.
type StreamingSender struct {
	registry *Registry
	log      logger.Logger
}

func NewStreamingSender(registry *Registry, log logger.Logger) *StreamingSender {
	return &StreamingSender{registry: registry, log: log}
}

func (s *StreamingSender) Name() string { return ChannelStreaming }

func (s *StreamingSender) Send(ctx context.Context, msg Message, opts SendOptions) error {
	sent, failed := s.registry.BroadcastToUser(opts.UserID, StreamEvent{
		Type:      StreamEventNotification,
		Payload:   msg,
		Timestamp: time.Now(),
	})
	if failed > 0 {
		s.log.WarnwCtx(ctx, "Streaming broadcast evicted dead connections",
			"user_id", opts.UserID,
			"sent", sent,
			"evicted", failed,
		)
	}
	if sent == 0 {
		return fmt.Errorf("no active streaming connections for user %s", opts.UserID)
	}
	s.log.DebugwCtx(ctx, "Streaming notification delivered",
		"user_id", opts.UserID,
		"connections", sent,
	)
	return nil
}
