package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/handyhub/handyhub-backend/pkg/enums"
)

// Notification stores in-app inbox entries scoped to users. IsRead only ever
// transitions false to true.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID                  `gorm:"type:uuid;not null" json:"user_id"`
	Audience  enums.Audience             `gorm:"type:audience;not null" json:"audience"`
	Category  enums.NotificationCategory `gorm:"type:notification_category;not null" json:"category"`
	Title     string                     `gorm:"type:text;not null" json:"title"`
	Message   string                     `gorm:"type:text;not null" json:"message"`
	Data      datatypes.JSONMap          `gorm:"type:jsonb" json:"data,omitempty"`
	IsRead    bool                       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;default:now()" json:"created_at"`
}
