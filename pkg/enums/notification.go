package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePayoutSent            NotificationType = "payout_sent"
	NotificationTypePayoutConfirmed       NotificationType = "payout_confirmed"
	NotificationTypePayoutAutoConfirmed   NotificationType = "payout_auto_confirmed"
	NotificationTypePayoutDisputed        NotificationType = "payout_disputed"
	NotificationTypePayoutDisputeResolved NotificationType = "payout_dispute_resolved"
	NotificationTypePayoutCompleted       NotificationType = "payout_completed"
	NotificationTypeRefundRequested       NotificationType = "refund_requested"
	NotificationTypeRefundCompleted       NotificationType = "refund_completed"
	NotificationTypeRefundFailed          NotificationType = "refund_failed"
	NotificationTypeOrderCancelled        NotificationType = "order_cancelled"
	NotificationTypeDriverReassignment    NotificationType = "driver_reassignment"
	NotificationTypeSupportEscalation     NotificationType = "support_escalation"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePayoutSent,
	NotificationTypePayoutConfirmed,
	NotificationTypePayoutAutoConfirmed,
	NotificationTypePayoutDisputed,
	NotificationTypePayoutDisputeResolved,
	NotificationTypePayoutCompleted,
	NotificationTypeRefundRequested,
	NotificationTypeRefundCompleted,
	NotificationTypeRefundFailed,
	NotificationTypeOrderCancelled,
	NotificationTypeDriverReassignment,
	NotificationTypeSupportEscalation,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
