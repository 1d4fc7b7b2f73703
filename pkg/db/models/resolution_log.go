package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// ResolutionLog is the append-only trail of support interventions on orders.
type ResolutionLog struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID    uuid.UUID               `gorm:"column:customer_id;type:uuid;not null"`
	AgentID       uuid.UUID               `gorm:"column:agent_id;type:uuid;not null"`
	ActionType    enums.SupportActionType `gorm:"column:action_type;type:text;not null"`
	ActionDetails json.RawMessage         `gorm:"column:action_details;type:jsonb"`
	Notes         *string                 `gorm:"column:notes"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
