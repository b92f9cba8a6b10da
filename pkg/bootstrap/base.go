package bootstrap

import (
	"context"
	"fmt"

	"foodcourt/internal/broker"
	"foodcourt/internal/config"
	"foodcourt/internal/logger"
	"foodcourt/pkg/retry"
)

type Base struct {
	Config *config.Config
	Logger logger.Logger
	Broker *broker.Manager
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// InitBroker dials RabbitMQ with the configured retry budget. Exhausting the
// budget is not fatal: the service comes up degraded and keeps serving HTTP
// while eventing is down.
func (b *Base) InitBroker(ctx context.Context, serviceName string) {
	if sugared, ok := b.Logger.(*logger.SugaredLogger); ok {
		sugared.SetServiceName(serviceName)
	}

	b.Broker = broker.NewManager(b.Config.Broker.URL, b.Logger)

	policy := retry.DefaultPolicy()
	if b.Config.Broker.ConnectRetries > 0 {
		policy.MaxAttempts = b.Config.Broker.ConnectRetries
	}
	if b.Config.Broker.ConnectBackoff > 0 {
		policy.InitialInterval = b.Config.Broker.ConnectBackoff
	}

	if err := b.Broker.ConnectWithRetry(ctx, policy); err != nil {
		b.Logger.Warnw("RabbitMQ unavailable, starting degraded without eventing",
			"error", err,
		)
	}
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	if b.Broker != nil {
		b.Broker.Disconnect()
	}

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
