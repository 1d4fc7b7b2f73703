package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// WarrantyDays is the complaint window after delivery during which the
// customer may raise issues and garage payouts stay withheld.
const WarrantyDays = 7

// Order is the settlement-side view of a marketplace order.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	GarageID        uuid.UUID           `gorm:"column:garage_id;type:uuid;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null;default:'QAR'"`
	DeliveredAt     *time.Time          `gorm:"column:delivered_at"`
	CompletedAt     *time.Time          `gorm:"column:completed_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// warrantyAnchor returns the timestamp the complaint window counts from.
// Delivery starts the clock; completion is only a fallback for orders that
// were closed without a recorded delivery.
func (o Order) warrantyAnchor() *time.Time {
	if o.DeliveredAt != nil {
		return o.DeliveredAt
	}
	return o.CompletedAt
}

// WarrantyElapsed reports whether the complaint window has closed. Orders
// without a delivery timestamp never clear the window.
func (o Order) WarrantyElapsed(now time.Time) bool {
	anchor := o.warrantyAnchor()
	if anchor == nil {
		return false
	}
	return !now.Before(anchor.AddDate(0, 0, WarrantyDays))
}

// WarrantyDaysLeft returns the whole days remaining in the complaint window,
// rounded up, floored at zero.
func (o Order) WarrantyDaysLeft(now time.Time) int {
	anchor := o.warrantyAnchor()
	if anchor == nil {
		return WarrantyDays
	}
	deadline := anchor.AddDate(0, 0, WarrantyDays)
	if !now.Before(deadline) {
		return 0
	}
	left := deadline.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) > 0 {
		days++
	}
	return days
}
