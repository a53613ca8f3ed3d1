package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/internal/push"
	"github.com/handyhub/handyhub-backend/pkg/db/models"
	"github.com/handyhub/handyhub-backend/pkg/enums"
	"github.com/handyhub/handyhub-backend/pkg/events"
	"github.com/handyhub/handyhub-backend/pkg/events/idempotency"
	"github.com/handyhub/handyhub-backend/pkg/logger"
)

const domainEventConsumer = "notifications-worker"

type dispatcher interface {
	DispatchToUser(ctx context.Context, userID uuid.UUID, msg push.Message) (*push.SendResult, error)
}

// Consumer watches domain events and turns them into inbox notifications,
// then pushes them to the recipient's registered devices.
type Consumer struct {
	svc          Service
	pusher       dispatcher
	subscription *pubsub.Subscriber
	decoders     *events.DecoderRegistry
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a domain event consumer.
func NewConsumer(svc Service, pusher dispatcher, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		pusher:       pusher,
		subscription: subscription,
		decoders:     events.DefaultRegistry(),
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := events.Type(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unhandled event type")
		return processResult{ack: true}
	}

	var envelope events.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == uuid.Nil {
		c.logg.Error(logCtx, "missing event id", fmt.Errorf("envelope event id is nil"))
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainEventConsumer, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		_ = c.idempotency.Delete(ctx, domainEventConsumer, envelope.EventID)
		return processResult{ack: true}
	}

	params, err := notificationFor(eventType, decoded)
	if err != nil {
		c.logg.Error(logCtx, "failed to map event", err)
		return processResult{ack: true}
	}

	notification, err := c.svc.Create(ctx, params)
	if err != nil {
		c.logg.Error(logCtx, "creating notification failed", err)
		_ = c.idempotency.Delete(ctx, domainEventConsumer, envelope.EventID)
		return processResult{nack: true}
	}

	c.pushNotification(logCtx, notification)
	return processResult{ack: true}
}

// pushNotification is best effort. The inbox entry already exists, so a push
// failure must not nack the message; the user still sees the notification
// in-app.
func (c *Consumer) pushNotification(ctx context.Context, notification *models.Notification) {
	if c.pusher == nil {
		return
	}
	result, err := c.pusher.DispatchToUser(ctx, notification.UserID, push.Message{
		Title: notification.Title,
		Body:  notification.Message,
		Data:  map[string]any(notification.Data),
	})
	if err != nil {
		c.logg.Error(ctx, "push dispatch failed", err)
		return
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"successful": result.Successful,
		"failed":     result.Failed,
	})
	c.logg.Info(logCtx, "push dispatch settled")
}

func notificationFor(eventType events.Type, decoded interface{}) (CreateParams, error) {
	switch payload := decoded.(type) {
	case events.BookingCreatedEvent:
		return CreateParams{
			UserID:   payload.ProfessionalID,
			Audience: audienceOrDefault(payload.RecipientAudience, enums.AudienceProfessional),
			Category: enums.NotificationCategoryBooking,
			Title:    "New booking request",
			Message:  fmt.Sprintf("You have a new booking for %s.", payload.ServiceName),
			Data: map[string]any{
				"booking_id": payload.BookingID.String(),
				"url":        fmt.Sprintf("/bookings/%s", payload.BookingID),
			},
		}, nil
	case events.MessageSentEvent:
		return CreateParams{
			UserID:   payload.RecipientID,
			Audience: audienceOrDefault(payload.RecipientAudience, enums.AudienceCustomer),
			Category: enums.NotificationCategoryMessage,
			Title:    fmt.Sprintf("New message from %s", payload.SenderName),
			Message:  payload.Preview,
			Data: map[string]any{
				"conversation_id": payload.ConversationID.String(),
				"url":             fmt.Sprintf("/messages/%s", payload.ConversationID),
			},
		}, nil
	case events.PaymentCapturedEvent:
		return CreateParams{
			UserID:   payload.RecipientID,
			Audience: audienceOrDefault(payload.RecipientAudience, enums.AudienceProfessional),
			Category: enums.NotificationCategoryPayment,
			Title:    "Payment received",
			Message:  fmt.Sprintf("A payment of %s was captured for your booking.", formatAmount(payload.AmountCents, payload.Currency)),
			Data: map[string]any{
				"payment_id": payload.PaymentID.String(),
				"booking_id": payload.BookingID.String(),
			},
		}, nil
	case events.BookingReminderEvent:
		return CreateParams{
			UserID:   payload.RecipientID,
			Audience: audienceOrDefault(payload.RecipientAudience, enums.AudienceCustomer),
			Category: enums.NotificationCategoryReminder,
			Title:    "Upcoming booking",
			Message:  fmt.Sprintf("Reminder: %s is scheduled for %s.", payload.ServiceName, payload.ScheduledFor.Format("Jan 2 at 3:04 PM")),
			Data: map[string]any{
				"booking_id": payload.BookingID.String(),
				"url":        fmt.Sprintf("/bookings/%s", payload.BookingID),
			},
		}, nil
	default:
		return CreateParams{}, fmt.Errorf("no notification mapping for %s", eventType)
	}
}

func audienceOrDefault(audience, fallback enums.Audience) enums.Audience {
	if audience.IsValid() {
		return audience
	}
	return fallback
}

func formatAmount(cents int, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
