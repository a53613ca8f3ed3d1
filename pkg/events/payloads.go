package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/pkg/enums"
)

// BookingCreatedEvent notifies a professional that a customer booked them.
type BookingCreatedEvent struct {
	BookingID         uuid.UUID      `json:"booking_id"`
	CustomerID        uuid.UUID      `json:"customer_id"`
	ProfessionalID    uuid.UUID      `json:"professional_id"`
	RecipientAudience enums.Audience `json:"recipient_audience"`
	ServiceName       string         `json:"service_name"`
	ScheduledFor      time.Time      `json:"scheduled_for"`
}

// MessageSentEvent notifies the other side of a conversation.
type MessageSentEvent struct {
	ConversationID    uuid.UUID      `json:"conversation_id"`
	SenderID          uuid.UUID      `json:"sender_id"`
	RecipientID       uuid.UUID      `json:"recipient_id"`
	RecipientAudience enums.Audience `json:"recipient_audience"`
	SenderName        string         `json:"sender_name"`
	Preview           string         `json:"preview"`
}

// PaymentCapturedEvent notifies a professional about a captured payout.
type PaymentCapturedEvent struct {
	PaymentID         uuid.UUID      `json:"payment_id"`
	BookingID         uuid.UUID      `json:"booking_id"`
	RecipientID       uuid.UUID      `json:"recipient_id"`
	RecipientAudience enums.Audience `json:"recipient_audience"`
	AmountCents       int            `json:"amount_cents"`
	Currency          string         `json:"currency"`
}

// BookingReminderEvent nudges a customer ahead of an upcoming visit.
type BookingReminderEvent struct {
	BookingID         uuid.UUID      `json:"booking_id"`
	RecipientID       uuid.UUID      `json:"recipient_id"`
	RecipientAudience enums.Audience `json:"recipient_audience"`
	ServiceName       string         `json:"service_name"`
	ScheduledFor      time.Time      `json:"scheduled_for"`
}
