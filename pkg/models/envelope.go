package models

import (
	"encoding/json"
	"time"

	"foodcourt/pkg/errors"
)

const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusUpdated = "OrderStatusUpdated"
	EventTypeInventoryCritical  = "inventory.critical"
)

const EnvelopeVersion = "1.0"

// Envelope is the wire format for every domain event. Data carries the
// event-type specific payload and is decoded by the handler that owns it.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version,omitempty"`
	Data      json.RawMessage `json:"data"`
}

func (e *Envelope) Validate() error {
	if e.EventID == "" {
		return errors.ErrValidation.WithDetail("message", "event missing eventId")
	}
	if e.EventType == "" {
		return errors.ErrValidation.WithDetail("message", "event missing eventType")
	}
	if e.Timestamp.IsZero() {
		return errors.ErrValidation.WithDetail("message", "event missing timestamp")
	}
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return errors.ErrValidation.WithDetail("message", "event missing data")
	}
	return nil
}

// DecodeData unmarshals the payload into v after basic envelope checks.
func (e *Envelope) DecodeData(v interface{}) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return errors.ErrValidation.WithCause(err).WithDetail("message", "event data is not a valid object")
	}
	return nil
}

func NewEnvelope(eventID, eventType string, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:   eventID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Version:   EnvelopeVersion,
		Data:      raw,
	}, nil
}
