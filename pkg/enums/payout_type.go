package enums

import "fmt"

// PayoutType distinguishes regular settlement payouts from refund reversals.
type PayoutType string

const (
	PayoutTypeStandard PayoutType = "standard"
	PayoutTypeReversal PayoutType = "reversal"
)

var validPayoutTypes = []PayoutType{
	PayoutTypeStandard,
	PayoutTypeReversal,
}

// String implements fmt.Stringer.
func (p PayoutType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutType.
func (p PayoutType) IsValid() bool {
	for _, candidate := range validPayoutTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutType converts raw input into a PayoutType.
func ParsePayoutType(value string) (PayoutType, error) {
	for _, candidate := range validPayoutTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout type %q", value)
}
