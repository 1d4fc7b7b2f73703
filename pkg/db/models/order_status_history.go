package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// OrderStatusHistory is an append-only record of order status transitions.
type OrderStatusHistory struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:order_status;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:order_status;not null"`
	ActorID    *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	ActorRole  enums.ActorRole   `gorm:"column:actor_role;type:text;not null"`
	Note       *string           `gorm:"column:note"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the singular history table name.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
