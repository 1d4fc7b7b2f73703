package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePayout       OutboxAggregateType = "payout"
	AggregateRefund       OutboxAggregateType = "refund"
	AggregateOrder        OutboxAggregateType = "order"
	AggregateSupport      OutboxAggregateType = "support"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePayout,
	AggregateRefund,
	AggregateOrder,
	AggregateSupport,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPayoutSent            OutboxEventType = "payout_sent"
	EventPayoutConfirmed       OutboxEventType = "payout_confirmed"
	EventPayoutAutoConfirmed   OutboxEventType = "payout_auto_confirmed"
	EventPayoutDisputed        OutboxEventType = "payout_disputed"
	EventPayoutDisputeResolved OutboxEventType = "payout_dispute_resolved"
	EventPayoutHeld            OutboxEventType = "payout_held"
	EventPayoutReleased        OutboxEventType = "payout_released"
	EventPayoutCompleted       OutboxEventType = "payout_completed"
	EventPayoutScheduled       OutboxEventType = "payout_scheduled"
	EventRefundRequested       OutboxEventType = "refund_requested"
	EventRefundCompleted       OutboxEventType = "refund_completed"
	EventRefundFailed          OutboxEventType = "refund_failed"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventDriverReassignment    OutboxEventType = "driver_reassignment_requested"
	EventSupportEscalated      OutboxEventType = "support_escalated"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPayoutSent,
	EventPayoutConfirmed,
	EventPayoutAutoConfirmed,
	EventPayoutDisputed,
	EventPayoutDisputeResolved,
	EventPayoutHeld,
	EventPayoutReleased,
	EventPayoutCompleted,
	EventPayoutScheduled,
	EventRefundRequested,
	EventRefundCompleted,
	EventRefundFailed,
	EventOrderCancelled,
	EventDriverReassignment,
	EventSupportEscalated,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
