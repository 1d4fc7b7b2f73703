package enums

import "fmt"

// PayoutStatus tracks the two-way confirmation lifecycle of a garage payout.
type PayoutStatus string

const (
	PayoutStatusPending              PayoutStatus = "pending"
	PayoutStatusProcessing           PayoutStatus = "processing"
	PayoutStatusAwaitingConfirmation PayoutStatus = "awaiting_confirmation"
	PayoutStatusConfirmed            PayoutStatus = "confirmed"
	PayoutStatusCompleted            PayoutStatus = "completed"
	PayoutStatusHeld                 PayoutStatus = "held"
	PayoutStatusDisputed             PayoutStatus = "disputed"
	PayoutStatusCancelled            PayoutStatus = "cancelled"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusProcessing,
	PayoutStatusAwaitingConfirmation,
	PayoutStatusConfirmed,
	PayoutStatusCompleted,
	PayoutStatusHeld,
	PayoutStatusDisputed,
	PayoutStatusCancelled,
}

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from this status.
func (p PayoutStatus) IsTerminal() bool {
	return p == PayoutStatusCompleted || p == PayoutStatusCancelled
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
