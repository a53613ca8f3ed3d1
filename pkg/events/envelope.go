package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/pkg/enums"
)

// Type names a domain event carried on the hh-domain-events topic.
type Type string

const (
	TypeBookingCreated  Type = "booking.created"
	TypeMessageSent     Type = "message.sent"
	TypePaymentCaptured Type = "payment.captured"
	TypeBookingReminder Type = "booking.reminder"
)

// IsValid reports whether the type is one the platform emits.
func (t Type) IsValid() bool {
	switch t {
	case TypeBookingCreated, TypeMessageSent, TypePaymentCaptured, TypeBookingReminder:
		return true
	}
	return false
}

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID   uuid.UUID      `json:"userId"`
	Audience enums.Audience `json:"audience,omitempty"`
}

// PayloadEnvelope is the stable structure published on the domain topic.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    uuid.UUID       `json:"eventId"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
