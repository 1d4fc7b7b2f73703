package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// Refund is a customer refund raised against an order. The unique
// (order_id, refund_type) index guards against double insertion.
type Refund struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID          `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_refunds_order_type"`
	CustomerID      uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	RefundType      enums.RefundType   `gorm:"column:refund_type;type:refund_type;not null;uniqueIndex:idx_refunds_order_type"`
	Status          enums.RefundStatus `gorm:"column:status;type:refund_status;not null;default:'pending'"`
	Amount          decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency        enums.Currency     `gorm:"column:currency;type:text;not null;default:'QAR'"`
	Reason          string             `gorm:"column:reason;type:text;not null"`
	GatewayRefundID *string            `gorm:"column:gateway_refund_id"`
	IdempotencyKey  *string            `gorm:"column:idempotency_key;uniqueIndex"`
	RequestedBy     uuid.UUID          `gorm:"column:requested_by;type:uuid;not null"`
	FailureReason   *string            `gorm:"column:failure_reason"`
	ProcessedAt     *time.Time         `gorm:"column:processed_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
