package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/pkg/enums"
)

// PushSubscription maps one registered device of one user to its Web Push
// delivery endpoint and encryption material. The (user_id, endpoint) pair is
// unique; re-registering the same device upserts the keys in place.
type PushSubscription struct {
	ID       uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_push_subscriptions_user_endpoint" json:"user_id"`
	Audience enums.Audience `gorm:"type:audience;not null" json:"audience"`
	Endpoint string         `gorm:"type:text;not null;uniqueIndex:ux_push_subscriptions_user_endpoint" json:"endpoint"`
	// Auth and P256dh are write-once encryption secrets. They are excluded
	// from JSON so they can never leak through responses or log fields.
	Auth      string    `gorm:"type:text;not null" json:"-"`
	P256dh    string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"type:timestamptz;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;default:now()" json:"updated_at"`
}
