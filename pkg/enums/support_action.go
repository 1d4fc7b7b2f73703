package enums

import "fmt"

// SupportActionType labels entries in the append-only resolution log.
type SupportActionType string

const (
	SupportActionFullRefund     SupportActionType = "full_refund"
	SupportActionProcessRefund  SupportActionType = "process_refund"
	SupportActionCancelOrder    SupportActionType = "cancel_order"
	SupportActionReassignDriver SupportActionType = "reassign_driver"
	SupportActionEscalate       SupportActionType = "escalate_to_ops"
)

var validSupportActionTypes = []SupportActionType{
	SupportActionFullRefund,
	SupportActionProcessRefund,
	SupportActionCancelOrder,
	SupportActionReassignDriver,
	SupportActionEscalate,
}

// String implements fmt.Stringer.
func (s SupportActionType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SupportActionType.
func (s SupportActionType) IsValid() bool {
	for _, candidate := range validSupportActionTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSupportActionType converts raw input into a SupportActionType.
func ParseSupportActionType(value string) (SupportActionType, error) {
	for _, candidate := range validSupportActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid support action type %q", value)
}

// AdminPayoutAction labels entries in the payout admin audit log.
type AdminPayoutAction string

const (
	AdminPayoutActionHold         AdminPayoutAction = "hold"
	AdminPayoutActionRelease      AdminPayoutAction = "release"
	AdminPayoutActionForceProcess AdminPayoutAction = "force_process"
	AdminPayoutActionProcess      AdminPayoutAction = "process"
	AdminPayoutActionAutoConfirm  AdminPayoutAction = "auto_confirm"
)

var validAdminPayoutActions = []AdminPayoutAction{
	AdminPayoutActionHold,
	AdminPayoutActionRelease,
	AdminPayoutActionForceProcess,
	AdminPayoutActionProcess,
	AdminPayoutActionAutoConfirm,
}

// String implements fmt.Stringer.
func (a AdminPayoutAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdminPayoutAction.
func (a AdminPayoutAction) IsValid() bool {
	for _, candidate := range validAdminPayoutActions {
		if candidate == a {
			return true
		}
	}
	return false
}
