package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}
	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}
	if err := validateStreaming(cfg.Streaming); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}
	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.URL == "" {
		return &ValidationError{
			Field:   "broker.url",
			Message: "broker url is required",
		}
	}
	if !strings.HasPrefix(cfg.URL, "amqp://") && !strings.HasPrefix(cfg.URL, "amqps://") {
		return &ValidationError{
			Field:   "broker.url",
			Message: "broker url must use the amqp or amqps scheme",
		}
	}
	if cfg.ConnectRetries < 0 {
		return &ValidationError{
			Field:   "broker.connect_retries",
			Message: "connect retries must not be negative",
		}
	}
	return nil
}

func validateStreaming(cfg StreamingConfig) error {
	if cfg.HeartbeatInterval < 0 {
		return &ValidationError{
			Field:   "streaming.heartbeat_interval",
			Message: "heartbeat interval must not be negative",
		}
	}
	return nil
}
