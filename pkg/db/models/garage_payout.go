package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// GaragePayout is a settlement owed to (or, for reversals, clawed back from)
// a garage for a single order. One standard payout exists per order; refund
// reversals are additional rows with negative net amounts.
type GaragePayout struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	GarageID         uuid.UUID          `gorm:"column:garage_id;type:uuid;not null;index"`
	Status           enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`
	PayoutType       enums.PayoutType   `gorm:"column:payout_type;type:payout_type;not null;default:'standard'"`
	GrossAmount      decimal.Decimal    `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	CommissionAmount decimal.Decimal    `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	NetAmount        decimal.Decimal    `gorm:"column:net_amount;type:numeric(12,2);not null"`
	Currency         enums.Currency     `gorm:"column:currency;type:text;not null;default:'QAR'"`
	PaymentReference *string            `gorm:"column:payment_reference"`
	SentAt           *time.Time         `gorm:"column:sent_at"`
	ConfirmedAt      *time.Time         `gorm:"column:confirmed_at"`
	CompletedAt      *time.Time         `gorm:"column:completed_at"`
	AutoConfirmed    bool               `gorm:"column:auto_confirmed;not null;default:false"`
	HoldReason       *string            `gorm:"column:hold_reason"`
	Notes            *string            `gorm:"column:notes"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
