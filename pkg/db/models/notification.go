package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// Notification stores in-app notification payloads per recipient. RecipientID
// is nil for role-wide broadcasts (e.g. the operations queue).
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID   *uuid.UUID             `gorm:"column:recipient_id;type:uuid;index"`
	RecipientRole enums.ActorRole        `gorm:"column:recipient_role;type:text;not null"`
	Type          enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title         string                 `gorm:"column:title;type:text;not null"`
	Message       string                 `gorm:"column:message;type:text;not null"`
	Data          json.RawMessage        `gorm:"column:data;type:jsonb"`
	ReadAt        *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt     time.Time              `gorm:"column:created_at;type:timestamptz;default:now()"`
}
