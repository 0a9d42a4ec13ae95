package authz

import "strconv"

// TargetRecord carries the attribution of a concrete record an action is
// requested on.
type TargetRecord struct {
	ID     string
	UnitID string
	// Synced marks records mirrored from an external provider; they are
	// read-only regardless of scope.
	Synced bool
}

// RecordFilter restricts a list query to the records a principal may see.
type RecordFilter struct {
	// All is true when a global grant lifts every restriction.
	All bool
	// UnitIDs holds the visible units when All is false, in assignment order.
	UnitIDs []string
}

// Int64IDs converts the filter's unit ids for repositories keyed by numeric
// ids. A nil result means no restriction; non-numeric ids are skipped, which
// fails closed since they can never match a stored key.
func (f RecordFilter) Int64IDs() []int64 {
	if f.All {
		return nil
	}
	ids := make([]int64, 0, len(f.UnitIDs))
	for _, raw := range f.UnitIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Decision is the successful outcome of an authorization check.
type Decision struct {
	Filter RecordFilter
}

// destructive actions are the ones a synced record refuses.
func destructiveAction(action string) bool {
	return action == ActionEdit || action == ActionDelete
}

// Authorizer answers allow/deny questions against an injected capability
// table. It holds no mutable state; every check recomputes the permission map
// from the assignments it is handed.
type Authorizer struct {
	table CapabilityTable
}

// NewAuthorizer constructs an Authorizer over the given capability table.
func NewAuthorizer(table CapabilityTable) *Authorizer {
	return &Authorizer{table: table}
}

// Permissions computes the principal's flat permission map.
func (a *Authorizer) Permissions(p Principal) PermissionMap {
	return CalculatePermissions(a.table, p.Assignments)
}

// Authorize decides whether the principal may perform action on the resource
// path. With a nil target it answers for a collection and returns the record
// filter; with a target it additionally checks scope coverage and the
// record-level business rules. The permission gate always precedes the scope
// gate.
func (a *Authorizer) Authorize(p Principal, path, action string, target *TargetRecord) (Decision, error) {
	perms := CalculatePermissions(a.table, p.Assignments)
	if !perms.Allows(path, action) {
		return Decision{}, &PermissionDeniedError{Permission: path, Action: action}
	}

	granting := a.grantingScopes(p.Assignments, path, action)

	if target == nil {
		return Decision{Filter: filterFromScopes(granting)}, nil
	}

	if !scopesCover(granting, target.UnitID) {
		return Decision{}, &InsufficientScopeError{
			PermissionDeniedError: PermissionDeniedError{Permission: path, Action: action},
			UserScope:             granting,
			RequiredScope:         UnitScope(target.UnitID),
		}
	}

	if target.Synced && destructiveAction(action) {
		return Decision{}, &RecordAccessDeniedError{
			PermissionDeniedError: PermissionDeniedError{Permission: path, Action: action},
			RecordID:              target.ID,
			Reason:                "record is synchronized from an external provider and read-only",
		}
	}

	return Decision{Filter: filterFromScopes(granting)}, nil
}

// grantingScopes collects, in assignment order, the scopes of assignments
// whose role grants the permission.
func (a *Authorizer) grantingScopes(assignments []RoleAssignment, path, action string) []Scope {
	var scopes []Scope
	for _, assignment := range assignments {
		if a.table[assignment.Role][path][action] {
			scopes = append(scopes, assignment.On)
		}
	}
	return scopes
}

func filterFromScopes(scopes []Scope) RecordFilter {
	seen := make(map[string]struct{}, len(scopes))
	var units []string
	for _, s := range scopes {
		if s.IsGlobal() {
			return RecordFilter{All: true}
		}
		id, _ := s.UnitID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		units = append(units, id)
	}
	return RecordFilter{UnitIDs: units}
}

func scopesCover(scopes []Scope, unitID string) bool {
	for _, s := range scopes {
		if s.IsGlobal() {
			return true
		}
		if id, ok := s.UnitID(); ok && id == unitID {
			return true
		}
	}
	return false
}
