package payouts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
)

// SendPaymentInput dispatches a payout to its garage for confirmation.
type SendPaymentInput struct {
	PayoutID         uuid.UUID
	ActorID          uuid.UUID
	PaymentReference string
}

// ConfirmPaymentInput is the garage acknowledging receipt of a payout.
type ConfirmPaymentInput struct {
	PayoutID uuid.UUID
	GarageID uuid.UUID
}

// DisputePaymentInput is the garage contesting a payout it was sent.
type DisputePaymentInput struct {
	PayoutID uuid.UUID
	GarageID uuid.UUID
	Reason   string
}

// ResolveDisputeInput settles a dispute one of three ways: re-send the payout
// (optionally with a corrected amount or reference), confirm it as paid, or
// cancel it outright.
type ResolveDisputeInput struct {
	DisputeID        uuid.UUID
	ResolverID       uuid.UUID
	Resolution       enums.DisputeResolution
	NewAmount        *decimal.Decimal
	PaymentReference *string
	Note             string
}

// AutoConfirmInput drives the sweep that confirms payouts the garage never
// acknowledged. ActorID is zero when the cron runtime triggers the sweep.
type AutoConfirmInput struct {
	ActorID uuid.UUID
}

// ConfirmAllInput bulk-confirms everything awaiting the garage's acknowledgement.
type ConfirmAllInput struct {
	GarageID uuid.UUID
}

// BulkConfirmResult summarizes one bulk confirmation.
type BulkConfirmResult struct {
	ConfirmedCount int             `json:"confirmed_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       enums.Currency  `json:"currency"`
}

// SendReminderInput nudges the garage about an unconfirmed payout.
type SendReminderInput struct {
	PayoutID uuid.UUID
	ActorID  uuid.UUID
}

// HoldPayoutInput freezes a payout with a mandatory reason.
type HoldPayoutInput struct {
	PayoutID uuid.UUID
	ActorID  uuid.UUID
	Reason   string
}

// AdminActionInput covers release, which needs no extra fields.
type AdminActionInput struct {
	PayoutID uuid.UUID
	ActorID  uuid.UUID
}

// ForceProcessInput completes a payout by operations fiat. The override reason
// is mandatory and lands in the audit trail and on the payout row.
type ForceProcessInput struct {
	PayoutID uuid.UUID
	ActorID  uuid.UUID
	Reason   string
}

// ProcessPayoutInput finalizes a confirmed payout.
type ProcessPayoutInput struct {
	PayoutID         uuid.UUID
	ActorID          uuid.UUID
	PaymentReference string
}

// ListPayoutsParams filter the payout history. GarageID nil lists globally.
type ListPayoutsParams struct {
	GarageID *uuid.UUID
	Status   *enums.PayoutStatus
	Limit    int
	Cursor   string
}

// ListPayoutsResult is one page of payouts plus the next cursor.
type ListPayoutsResult struct {
	Payouts    []PayoutResponse
	NextCursor string
}

// PayoutResponse is the API-facing projection of a payout row.
type PayoutResponse struct {
	ID               uuid.UUID          `json:"id"`
	OrderID          uuid.UUID          `json:"order_id"`
	GarageID         uuid.UUID          `json:"garage_id"`
	Status           enums.PayoutStatus `json:"status"`
	PayoutType       enums.PayoutType   `json:"payout_type"`
	GrossAmount      decimal.Decimal    `json:"gross_amount"`
	CommissionAmount decimal.Decimal    `json:"commission_amount"`
	NetAmount        decimal.Decimal    `json:"net_amount"`
	Currency         enums.Currency     `json:"currency"`
	PaymentReference *string            `json:"payment_reference,omitempty"`
	SentAt           *time.Time         `json:"sent_at,omitempty"`
	ConfirmedAt      *time.Time         `json:"confirmed_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	AutoConfirmed    bool               `json:"auto_confirmed"`
	HoldReason       *string            `json:"hold_reason,omitempty"`
	Notes            *string            `json:"notes,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// DisputeResponse is the API-facing projection of a payout dispute.
type DisputeResponse struct {
	ID         uuid.UUID                `json:"id"`
	PayoutID   uuid.UUID                `json:"payout_id"`
	GarageID   uuid.UUID                `json:"garage_id"`
	Reason     string                   `json:"reason"`
	Status     enums.DisputeStatus      `json:"status"`
	Resolution *enums.DisputeResolution `json:"resolution,omitempty"`
	ResolvedAt *time.Time               `json:"resolved_at,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// PayoutSummary aggregates a garage's payouts by status.
type PayoutSummary struct {
	GarageID       uuid.UUID       `json:"garage_id"`
	PendingTotal   decimal.Decimal `json:"pending_total"`
	PendingCount   int64           `json:"pending_count"`
	AwaitingTotal  decimal.Decimal `json:"awaiting_total"`
	AwaitingCount  int64           `json:"awaiting_count"`
	ConfirmedTotal decimal.Decimal `json:"confirmed_total"`
	ConfirmedCount int64           `json:"confirmed_count"`
	CompletedTotal decimal.Decimal `json:"completed_total"`
	CompletedCount int64           `json:"completed_count"`
}

// AwaitingPayout is a payout the garage still needs to confirm, with the days
// remaining before the sweep confirms it automatically.
type AwaitingPayout struct {
	PayoutResponse
	DaysUntilAutoConfirm int `json:"days_until_auto_confirm"`
}

func toPayoutResponse(payout *models.GaragePayout) *PayoutResponse {
	if payout == nil {
		return nil
	}
	return &PayoutResponse{
		ID:               payout.ID,
		OrderID:          payout.OrderID,
		GarageID:         payout.GarageID,
		Status:           payout.Status,
		PayoutType:       payout.PayoutType,
		GrossAmount:      payout.GrossAmount,
		CommissionAmount: payout.CommissionAmount,
		NetAmount:        payout.NetAmount,
		Currency:         payout.Currency,
		PaymentReference: payout.PaymentReference,
		SentAt:           payout.SentAt,
		ConfirmedAt:      payout.ConfirmedAt,
		CompletedAt:      payout.CompletedAt,
		AutoConfirmed:    payout.AutoConfirmed,
		HoldReason:       payout.HoldReason,
		Notes:            payout.Notes,
		CreatedAt:        payout.CreatedAt,
	}
}

func toDisputeResponse(dispute *models.PayoutDispute) *DisputeResponse {
	if dispute == nil {
		return nil
	}
	return &DisputeResponse{
		ID:         dispute.ID,
		PayoutID:   dispute.PayoutID,
		GarageID:   dispute.GarageID,
		Reason:     dispute.Reason,
		Status:     dispute.Status,
		Resolution: dispute.Resolution,
		ResolvedAt: dispute.ResolvedAt,
		CreatedAt:  dispute.CreatedAt,
	}
}
