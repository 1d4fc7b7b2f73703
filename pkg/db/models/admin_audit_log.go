package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// AdminAuditLog is the append-only trail of operator actions on payouts.
type AdminAuditLog struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID   uuid.UUID               `gorm:"column:actor_id;type:uuid;not null"`
	Action    enums.AdminPayoutAction `gorm:"column:action;type:text;not null"`
	PayoutID  uuid.UUID               `gorm:"column:payout_id;type:uuid;not null;index"`
	Detail    json.RawMessage         `gorm:"column:detail;type:jsonb"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
