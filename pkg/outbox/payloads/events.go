package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/enums"
)

// PayoutSentEvent is emitted when a payout is dispatched to a garage.
type PayoutSentEvent struct {
	PayoutID         uuid.UUID       `json:"payout_id"`
	OrderID          uuid.UUID       `json:"order_id"`
	GarageID         uuid.UUID       `json:"garage_id"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	Currency         enums.Currency  `json:"currency"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	SentAt           time.Time       `json:"sent_at"`
}

// PayoutConfirmedEvent is emitted when a garage acknowledges receipt, or the
// sweep auto-confirms after the confirmation window lapses.
type PayoutConfirmedEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	OrderID       uuid.UUID `json:"order_id"`
	GarageID      uuid.UUID `json:"garage_id"`
	AutoConfirmed bool      `json:"auto_confirmed"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// PayoutDisputedEvent is emitted when a garage contests a sent payout.
type PayoutDisputedEvent struct {
	PayoutID  uuid.UUID `json:"payout_id"`
	DisputeID uuid.UUID `json:"dispute_id"`
	OrderID   uuid.UUID `json:"order_id"`
	GarageID  uuid.UUID `json:"garage_id"`
	Reason    string    `json:"reason"`
}

// PayoutDisputeResolvedEvent reports how operations settled a dispute.
type PayoutDisputeResolvedEvent struct {
	PayoutID   uuid.UUID               `json:"payout_id"`
	DisputeID  uuid.UUID               `json:"dispute_id"`
	GarageID   uuid.UUID               `json:"garage_id"`
	Resolution enums.DisputeResolution `json:"resolution"`
	NewStatus  enums.PayoutStatus      `json:"new_status"`
}

// PayoutStatusEvent covers administrative hold/release/complete transitions.
type PayoutStatusEvent struct {
	PayoutID uuid.UUID          `json:"payout_id"`
	OrderID  uuid.UUID          `json:"order_id"`
	GarageID uuid.UUID          `json:"garage_id"`
	Status   enums.PayoutStatus `json:"status"`
	Reason   string             `json:"reason,omitempty"`
}

// PayoutScheduledEvent is emitted when the scheduler creates a payout for a
// settled order.
type PayoutScheduledEvent struct {
	PayoutID  uuid.UUID       `json:"payout_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	GarageID  uuid.UUID       `json:"garage_id"`
	NetAmount decimal.Decimal `json:"net_amount"`
}

// RefundRequestedEvent is emitted when a pending refund row is created.
type RefundRequestedEvent struct {
	RefundID   uuid.UUID        `json:"refund_id"`
	OrderID    uuid.UUID        `json:"order_id"`
	CustomerID uuid.UUID        `json:"customer_id"`
	RefundType enums.RefundType `json:"refund_type"`
	Amount     decimal.Decimal  `json:"amount"`
	Reason     string           `json:"reason"`
}

// RefundSettledEvent reports the gateway outcome for a refund.
type RefundSettledEvent struct {
	RefundID        uuid.UUID          `json:"refund_id"`
	OrderID         uuid.UUID          `json:"order_id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	Status          enums.RefundStatus `json:"status"`
	Amount          decimal.Decimal    `json:"amount"`
	GatewayRefundID string             `json:"gateway_refund_id,omitempty"`
	FailureReason   string             `json:"failure_reason,omitempty"`
}

// OrderCancelledEvent is emitted when support cancels an order pre-dispatch.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	GarageID    uuid.UUID         `json:"garage_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	Reason      string            `json:"reason"`
	CancelledAt time.Time         `json:"cancelled_at"`
}

// DriverReassignmentEvent asks dispatch to find a replacement driver.
type DriverReassignmentEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	DriverID     uuid.UUID `json:"driver_id"`
	Reason       string    `json:"reason"`
}

// SupportEscalatedEvent notifies the operations queue of a new escalation.
type SupportEscalatedEvent struct {
	EscalationID uuid.UUID                `json:"escalation_id"`
	OrderID      uuid.UUID                `json:"order_id"`
	AgentID      uuid.UUID                `json:"agent_id"`
	Priority     enums.EscalationPriority `json:"priority"`
	Reason       string                   `json:"reason"`
}

// NotificationRequestedEvent tells the delivery edge to push a notification.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	RecipientID    *uuid.UUID             `json:"recipient_id,omitempty"`
	RecipientRole  enums.ActorRole        `json:"recipient_role"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
}
