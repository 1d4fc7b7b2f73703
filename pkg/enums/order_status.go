package enums

import "fmt"

// OrderStatus tracks the lifecycle of a marketplace order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusAwaitingPickup OrderStatus = "awaiting_pickup"
	OrderStatusInDelivery     OrderStatus = "in_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusDisputed       OrderStatus = "disputed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusCancelledByOps OrderStatus = "cancelled_by_ops"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusAwaitingPickup,
	OrderStatusInDelivery,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusDisputed,
	OrderStatusCancelled,
	OrderStatusCancelledByOps,
}

// cancellableOrderStatuses are the pre-dispatch states support may cancel from.
var cancellableOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusAwaitingPickup,
}

// refundableOrderStatuses are the post-delivery states eligible for refunds.
var refundableOrderStatuses = []OrderStatus{
	OrderStatusDelivered,
	OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsCancellable reports whether support may still cancel an order in this status.
func (o OrderStatus) IsCancellable() bool {
	for _, candidate := range cancellableOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsRefundable reports whether an order in this status is eligible for a refund.
func (o OrderStatus) IsRefundable() bool {
	for _, candidate := range refundableOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
