package authz

import (
	"encoding/json"
	"fmt"
)

// RoleName identifies one of the closed set of application roles.
type RoleName string

const (
	// RoleUserStd is the standard unit-level user.
	RoleUserStd RoleName = "CO2_USER_STD"
	// RoleUserSecondary is the secondary unit-level user.
	RoleUserSecondary RoleName = "CO2_USER_SECONDARY"
	// RoleUserPrincipal is the head-of-unit user.
	RoleUserPrincipal RoleName = "CO2_USER_PRINCIPAL"
	// RoleBackoffice is backoffice staff.
	RoleBackoffice RoleName = "CO2_BACKOFFICE"
	// RoleServiceManager manages the service across all units.
	RoleServiceManager RoleName = "CO2_SERVICE_MANAGER"
	// RoleSuperadmin has unrestricted access.
	RoleSuperadmin RoleName = "CO2_SUPERADMIN"
)

var knownRoles = map[RoleName]struct{}{
	RoleUserStd:        {},
	RoleUserSecondary:  {},
	RoleUserPrincipal:  {},
	RoleBackoffice:     {},
	RoleServiceManager: {},
	RoleSuperadmin:     {},
}

// ParseRoleName validates a raw role string. Unknown roles are rejected with
// UnknownRoleError rather than silently dropped: a swallowed role assignment
// is a fail-open security bug.
func ParseRoleName(raw string) (RoleName, error) {
	role := RoleName(raw)
	if _, ok := knownRoles[role]; !ok {
		return "", &UnknownRoleError{Role: raw}
	}
	return role, nil
}

// UnmarshalJSON decodes and validates a role name.
func (r *RoleName) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseRoleName(raw)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

type scopeKind uint8

const (
	scopeGlobal scopeKind = iota
	scopeUnit
)

// Scope bounds a role grant to the whole installation or to a single
// organizational unit. The zero value is the global scope.
type Scope struct {
	kind scopeKind
	unit string
}

// GlobalScope returns the unrestricted scope.
func GlobalScope() Scope {
	return Scope{kind: scopeGlobal}
}

// UnitScope returns a scope restricted to one organizational unit.
func UnitScope(unitID string) Scope {
	return Scope{kind: scopeUnit, unit: unitID}
}

// IsGlobal reports whether the scope is unrestricted.
func (s Scope) IsGlobal() bool {
	return s.kind == scopeGlobal
}

// UnitID returns the unit the scope is bound to and whether it is unit-scoped.
func (s Scope) UnitID() (string, bool) {
	if s.kind != scopeUnit {
		return "", false
	}
	return s.unit, true
}

// String renders the scope for log lines and error messages.
func (s Scope) String() string {
	if s.kind == scopeGlobal {
		return "global"
	}
	return "unit:" + s.unit
}

// MarshalJSON emits {"scope":"global"} or {"unit":"<id>"}.
func (s Scope) MarshalJSON() ([]byte, error) {
	if s.kind == scopeGlobal {
		return json.Marshal(map[string]string{"scope": "global"})
	}
	return json.Marshal(map[string]string{"unit": s.unit})
}

// UnmarshalJSON accepts exactly the two wire shapes and rejects anything else.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("authz: decode scope: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("authz: scope must have exactly one of %q or %q", "scope", "unit")
	}
	if tag, ok := raw["scope"]; ok {
		var value string
		if err := json.Unmarshal(tag, &value); err != nil {
			return fmt.Errorf("authz: decode scope tag: %w", err)
		}
		if value != "global" {
			return fmt.Errorf("authz: unsupported scope %q", value)
		}
		*s = GlobalScope()
		return nil
	}
	if tag, ok := raw["unit"]; ok {
		var unitID string
		if err := json.Unmarshal(tag, &unitID); err != nil {
			return fmt.Errorf("authz: decode scope unit: %w", err)
		}
		if unitID == "" {
			return fmt.Errorf("authz: unit scope requires a unit id")
		}
		*s = UnitScope(unitID)
		return nil
	}
	return fmt.Errorf("authz: scope must have exactly one of %q or %q", "scope", "unit")
}

// RoleAssignment grants a role within a scope. An assignment without a scope
// is meaningless, so decoding requires both fields.
type RoleAssignment struct {
	Role RoleName `json:"role"`
	On   Scope    `json:"on"`
}

// UnmarshalJSON decodes an assignment, rejecting missing fields and unknown roles.
func (a *RoleAssignment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role *RoleName `json:"role"`
		On   *Scope    `json:"on"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Role == nil {
		return fmt.Errorf("authz: role assignment requires a role")
	}
	if raw.On == nil {
		return fmt.Errorf("authz: role assignment requires a scope")
	}
	a.Role = *raw.Role
	a.On = *raw.On
	return nil
}

// DecodeAssignments parses a persisted role assignment collection. Input order
// is preserved for deterministic serialization.
func DecodeAssignments(data []byte) ([]RoleAssignment, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var assignments []RoleAssignment
	if err := json.Unmarshal(data, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// EncodeAssignments serializes a role assignment collection in input order.
func EncodeAssignments(assignments []RoleAssignment) ([]byte, error) {
	if assignments == nil {
		assignments = []RoleAssignment{}
	}
	return json.Marshal(assignments)
}

// Principal is the authenticated actor an authorization question is asked about.
type Principal struct {
	ID          int64
	Email       string
	Assignments []RoleAssignment
}
