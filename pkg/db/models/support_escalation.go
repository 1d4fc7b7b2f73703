package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// SupportEscalation is an order handed from support to the operations queue.
type SupportEscalation struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID                `gorm:"column:order_id;type:uuid;not null;index"`
	AgentID   uuid.UUID                `gorm:"column:agent_id;type:uuid;not null"`
	Reason    string                   `gorm:"column:reason;type:text;not null"`
	Priority  enums.EscalationPriority `gorm:"column:priority;type:text;not null;default:'normal'"`
	Status    enums.EscalationStatus   `gorm:"column:status;type:text;not null;default:'open'"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
