package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"foodcourt/internal/config"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/models"
)

// ChannelResult reports the outcome of one channel attempt within a send.
type ChannelResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Result aggregates a multi-channel send. Success holds only when every
// enabled channel delivered.
type Result struct {
	Success bool            `json:"success"`
	Results []ChannelResult `json:"results"`
	Error   string          `json:"error,omitempty"`
}

type ChannelStats struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

type Stats struct {
	Sent      int64                   `json:"sent"`
	Failed    int64                   `json:"failed"`
	ByChannel map[string]ChannelStats `json:"byChannel"`
}

// Engine renders templates and fans each notification out over the enabled
// channels. Channel failures are isolated: one provider going down never
// blocks the others from delivering.
type Engine struct {
	senders   []ChannelSender
	templates map[string]Template
	log       logger.Logger

	mu      sync.RWMutex
	enabled map[string]bool

	statsMu sync.Mutex
	stats   Stats
}

func NewEngine(cfg config.ChannelsConfig, registry *Registry, log logger.Logger) *Engine {
	e := &Engine{
		senders: []ChannelSender{
			NewConsoleSender(log),
			NewEmailSender(log),
			NewSMSSender(log),
			NewPushSender(log),
			NewStreamingSender(registry, log),
		},
		templates: defaultTemplates(),
		log:       log,
		enabled: map[string]bool{
			ChannelConsole:   cfg.Console,
			ChannelEmail:     cfg.Email,
			ChannelSMS:       cfg.SMS,
			ChannelPush:      cfg.Push,
			ChannelStreaming: cfg.Streaming,
		},
	}
	e.stats.ByChannel = make(map[string]ChannelStats)
	return e
}

// Send delivers msg over every enabled channel using the named template.
// An unknown template fails closed without touching any channel or counter.
func (e *Engine) Send(ctx context.Context, templateKey string, msg Message, opts SendOptions) Result {
	tmpl, ok := e.templates[templateKey]
	if !ok {
		e.log.ErrorwCtx(ctx, "Unknown notification template", "template", templateKey)
		return Result{
			Success: false,
			Error:   fmt.Sprintf("unknown template: %s", templateKey),
		}
	}
	if msg.Title == "" {
		msg.Title = tmpl.Title
	}

	start := time.Now()
	result := Result{Success: true}

	for _, sender := range e.senders {
		if !e.ChannelEnabled(sender.Name()) {
			continue
		}
		err := e.sendOnChannel(ctx, sender, msg, opts)
		cr := ChannelResult{Channel: sender.Name(), Success: err == nil}
		if err != nil {
			cr.Error = err.Error()
			result.Success = false
			e.log.WarnwCtx(ctx, "Notification channel failed",
				"channel", sender.Name(),
				"error", err,
			)
		}
		e.recordChannel(sender.Name(), err == nil)
		result.Results = append(result.Results, cr)
	}

	metrics.NotificationSendDuration.WithLabelValues(templateKey).Observe(time.Since(start).Seconds())
	e.recordOutcome(result.Success)
	return result
}

// sendOnChannel contains the blast radius of a single channel, including a
// panicking sender.
func (e *Engine) sendOnChannel(ctx context.Context, sender ChannelSender, msg Message, opts SendOptions) (err error) {
	defer func() {
		if rec := errors.RecoverPanic(recover()); rec != nil {
			err = rec
		}
	}()
	return sender.Send(ctx, msg, opts)
}

func (e *Engine) SendOrderCreated(ctx context.Context, data models.OrderCreatedData) Result {
	return e.Send(ctx, TemplateOrderCreated, FormatOrderCreatedMessage(data), SendOptions{UserID: data.UserID})
}

func (e *Engine) SendOrderStatusUpdated(ctx context.Context, data models.OrderStatusUpdatedData) Result {
	return e.Send(ctx, TemplateKeyForStatus(data.CurrentStatus), FormatOrderStatusMessage(data), SendOptions{UserID: data.UserID})
}

// ChannelEnabled reports whether the named channel currently delivers.
func (e *Engine) ChannelEnabled(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled[name]
}

// SetChannelEnabled toggles a channel at runtime. Unknown channel names are
// rejected rather than silently created.
func (e *Engine) SetChannelEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.enabled[name]; !ok {
		return errors.ErrValidation.WithDetail("message", fmt.Sprintf("unknown channel: %s", name))
	}
	e.enabled[name] = enabled
	e.log.Infow("Notification channel toggled", "channel", name, "enabled", enabled)
	return nil
}

// ChannelStates returns a snapshot of every channel's enabled flag.
func (e *Engine) ChannelStates() map[string]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]bool, len(e.enabled))
	for name, on := range e.enabled {
		out[name] = on
	}
	return out
}

// Stats returns a snapshot of the delivery counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	snap := Stats{
		Sent:      e.stats.Sent,
		Failed:    e.stats.Failed,
		ByChannel: make(map[string]ChannelStats, len(e.stats.ByChannel)),
	}
	for name, cs := range e.stats.ByChannel {
		snap.ByChannel[name] = cs
	}
	return snap
}

func (e *Engine) ResetStats() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats = Stats{ByChannel: make(map[string]ChannelStats)}
	e.log.Infow("Notification statistics reset")
}

func (e *Engine) recordOutcome(success bool) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	if success {
		e.stats.Sent++
	} else {
		e.stats.Failed++
	}
}

func (e *Engine) recordChannel(name string, success bool) {
	status := "sent"
	if !success {
		status = "failed"
	}
	metrics.NotificationsSentTotal.WithLabelValues(name, status).Inc()

	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	cs := e.stats.ByChannel[name]
	if success {
		cs.Sent++
	} else {
		cs.Failed++
	}
	e.stats.ByChannel[name] = cs
}
