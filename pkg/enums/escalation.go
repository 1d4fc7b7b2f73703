package enums

import "fmt"

// EscalationPriority ranks an operations escalation raised by support.
type EscalationPriority string

const (
	EscalationPriorityLow    EscalationPriority = "low"
	EscalationPriorityNormal EscalationPriority = "normal"
	EscalationPriorityHigh   EscalationPriority = "high"
	EscalationPriorityUrgent EscalationPriority = "urgent"
)

var validEscalationPriorities = []EscalationPriority{
	EscalationPriorityLow,
	EscalationPriorityNormal,
	EscalationPriorityHigh,
	EscalationPriorityUrgent,
}

// String implements fmt.Stringer.
func (e EscalationPriority) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscalationPriority.
func (e EscalationPriority) IsValid() bool {
	for _, candidate := range validEscalationPriorities {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEscalationPriority converts raw input into an EscalationPriority.
func ParseEscalationPriority(value string) (EscalationPriority, error) {
	for _, candidate := range validEscalationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escalation priority %q", value)
}

// EscalationStatus tracks an escalation through the operations queue.
type EscalationStatus string

const (
	EscalationStatusOpen         EscalationStatus = "open"
	EscalationStatusAcknowledged EscalationStatus = "acknowledged"
	EscalationStatusResolved     EscalationStatus = "resolved"
)

var validEscalationStatuses = []EscalationStatus{
	EscalationStatusOpen,
	EscalationStatusAcknowledged,
	EscalationStatusResolved,
}

// String implements fmt.Stringer.
func (e EscalationStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscalationStatus.
func (e EscalationStatus) IsValid() bool {
	for _, candidate := range validEscalationStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}
