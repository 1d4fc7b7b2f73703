package enums

import "fmt"

// DisputeStatus tracks a payout dispute raised by a garage.
type DisputeStatus string

const (
	DisputeStatusPending     DisputeStatus = "pending"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusContested   DisputeStatus = "contested"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusRejected    DisputeStatus = "rejected"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusPending,
	DisputeStatusUnderReview,
	DisputeStatusContested,
	DisputeStatusResolved,
	DisputeStatusRejected,
}

// blockingDisputeStatuses are the open states that freeze payout movement.
var blockingDisputeStatuses = []DisputeStatus{
	DisputeStatusPending,
	DisputeStatusUnderReview,
	DisputeStatusContested,
}

// String implements fmt.Stringer.
func (d DisputeStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeStatus.
func (d DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsBlocking reports whether a dispute in this status blocks payouts.
func (d DisputeStatus) IsBlocking() bool {
	for _, candidate := range blockingDisputeStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// BlockingDisputeStatuses returns the open dispute states that freeze payouts.
func BlockingDisputeStatuses() []DisputeStatus {
	out := make([]DisputeStatus, len(blockingDisputeStatuses))
	copy(out, blockingDisputeStatuses)
	return out
}

// ParseDisputeStatus converts raw input into a DisputeStatus.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}

// DisputeResolution is the outcome an operator applies to a payout dispute.
type DisputeResolution string

const (
	DisputeResolutionReSent    DisputeResolution = "re_sent"
	DisputeResolutionConfirmed DisputeResolution = "confirmed"
	DisputeResolutionCancelled DisputeResolution = "cancelled"
)

var validDisputeResolutions = []DisputeResolution{
	DisputeResolutionReSent,
	DisputeResolutionConfirmed,
	DisputeResolutionCancelled,
}

// String implements fmt.Stringer.
func (d DisputeResolution) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeResolution.
func (d DisputeResolution) IsValid() bool {
	for _, candidate := range validDisputeResolutions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputeResolution converts raw input into a DisputeResolution.
func ParseDisputeResolution(value string) (DisputeResolution, error) {
	for _, candidate := range validDisputeResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute resolution %q", value)
}
