package authz

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is the sentinel every permission-denial error wraps, so
// callers can classify the whole family with errors.Is.
var ErrPermissionDenied = errors.New("authz: permission denied")

// PermissionDeniedError reports a missing base permission grant.
type PermissionDeniedError struct {
	Permission string
	Action     string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("authz: permission %s.%s denied", e.Permission, e.Action)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// Required returns the "<path>.<action>" form consumed by the HTTP boundary.
func (e *PermissionDeniedError) Required() string {
	return e.Permission + "." + e.Action
}

// InsufficientScopeError reports that the grant exists but none of the
// principal's scopes cover the target record's unit.
type InsufficientScopeError struct {
	PermissionDeniedError
	UserScope     []Scope
	RequiredScope Scope
}

func (e *InsufficientScopeError) Error() string {
	return fmt.Sprintf("authz: permission %s.%s granted but scope %s not covered", e.Permission, e.Action, e.RequiredScope)
}

// RecordAccessDeniedError reports that grant and scope are fine but a
// record-specific business rule still forbids the action.
type RecordAccessDeniedError struct {
	PermissionDeniedError
	RecordID string
	Reason   string
}

func (e *RecordAccessDeniedError) Error() string {
	return fmt.Sprintf("authz: record %s: %s", e.RecordID, e.Reason)
}

// UnknownRoleError reports an unrecognized role string during deserialization.
// It is deliberately outside the permission-denial hierarchy: it signals
// corrupted or incompatible persisted data, not a policy decision.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("authz: unknown role %q", e.Role)
}
