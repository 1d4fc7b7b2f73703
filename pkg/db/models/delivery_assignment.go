package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// DeliveryAssignment links a driver to an order's delivery leg.
type DeliveryAssignment struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	DriverID   uuid.UUID              `gorm:"column:driver_id;type:uuid;not null"`
	Status     enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'assigned'"`
	AssignedAt time.Time              `gorm:"column:assigned_at;not null"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
