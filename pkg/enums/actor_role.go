package enums

import "fmt"

// ActorRole identifies which side of the marketplace an actor belongs to.
type ActorRole string

const (
	ActorRoleCustomer   ActorRole = "customer"
	ActorRoleGarage     ActorRole = "garage"
	ActorRoleDriver     ActorRole = "driver"
	ActorRoleSupport    ActorRole = "support"
	ActorRoleOperations ActorRole = "operations"
	ActorRoleSystem     ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleGarage,
	ActorRoleDriver,
	ActorRoleSupport,
	ActorRoleOperations,
	ActorRoleSystem,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
