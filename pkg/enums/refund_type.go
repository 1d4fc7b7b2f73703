package enums

import "fmt"

// RefundType records why a refund was raised. At most one refund of each type
// may exist per order.
type RefundType string

const (
	RefundTypeSupportRequest    RefundType = "support_refund_request"
	RefundTypeSupportRefund     RefundType = "support_refund"
	RefundTypeOrderCancellation RefundType = "order_cancellation"
	RefundTypeCustomerRefusal   RefundType = "customer_refusal"
	RefundTypeWrongPart         RefundType = "wrong_part"
	RefundTypeDriverFailure     RefundType = "driver_failure"
)

var validRefundTypes = []RefundType{
	RefundTypeSupportRequest,
	RefundTypeSupportRefund,
	RefundTypeOrderCancellation,
	RefundTypeCustomerRefusal,
	RefundTypeWrongPart,
	RefundTypeDriverFailure,
}

// String implements fmt.Stringer.
func (r RefundType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundType.
func (r RefundType) IsValid() bool {
	for _, candidate := range validRefundTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundType converts raw input into a RefundType.
func ParseRefundType(value string) (RefundType, error) {
	for _, candidate := range validRefundTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund type %q", value)
}
