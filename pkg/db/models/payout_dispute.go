package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// PayoutDispute records a garage contesting a payout it was sent.
type PayoutDispute struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayoutID   uuid.UUID                `gorm:"column:payout_id;type:uuid;not null;index"`
	GarageID   uuid.UUID                `gorm:"column:garage_id;type:uuid;not null"`
	Reason     string                   `gorm:"column:reason;type:text;not null"`
	Status     enums.DisputeStatus      `gorm:"column:status;type:dispute_status;not null;default:'pending'"`
	Resolution *enums.DisputeResolution `gorm:"column:resolution;type:text"`
	ResolvedBy *uuid.UUID               `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt *time.Time               `gorm:"column:resolved_at"`
	Notes      *string                  `gorm:"column:notes"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
