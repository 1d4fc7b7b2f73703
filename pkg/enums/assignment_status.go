package enums

import "fmt"

// AssignmentStatus tracks a driver delivery assignment.
type AssignmentStatus string

const (
	AssignmentStatusAssigned            AssignmentStatus = "assigned"
	AssignmentStatusPickedUp            AssignmentStatus = "picked_up"
	AssignmentStatusDelivered           AssignmentStatus = "delivered"
	AssignmentStatusCancelled           AssignmentStatus = "cancelled"
	AssignmentStatusReassignmentPending AssignmentStatus = "reassignment_pending"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusPickedUp,
	AssignmentStatusDelivered,
	AssignmentStatusCancelled,
	AssignmentStatusReassignmentPending,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsActive reports whether the assignment still owns the delivery.
func (a AssignmentStatus) IsActive() bool {
	return a == AssignmentStatusAssigned || a == AssignmentStatusPickedUp
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
