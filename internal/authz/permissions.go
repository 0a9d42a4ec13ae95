package authz

// ActionSet maps an action name to whether it is granted. Absent keys mean
// denied, never an error.
type ActionSet map[string]bool

// PermissionMap flattens a principal's combined grants into
// resource path -> action -> granted.
type PermissionMap map[string]ActionSet

// Allows reports whether the map grants the action on the resource path.
func (m PermissionMap) Allows(path, action string) bool {
	return m[path][action]
}

// CapabilityTable is the authoritative policy source: which resource paths and
// actions each role grants. It is configuration data reviewed as a whole, not
// logic, and is injected into the Authorizer rather than read from globals.
type CapabilityTable map[RoleName]PermissionMap

// CalculatePermissions folds role assignments into a flat permission map.
// Grants are additive across assignments: anything granted by at least one
// role stays granted, there is no deny entry. The computation is pure and runs
// per call; permission maps are never cached because role assignments can
// change between calls.
func CalculatePermissions(table CapabilityTable, assignments []RoleAssignment) PermissionMap {
	merged := make(PermissionMap)
	for _, assignment := range assignments {
		for path, actions := range table[assignment.Role] {
			for action, granted := range actions {
				if !granted {
					continue
				}
				if merged[path] == nil {
					merged[path] = make(ActionSet)
				}
				merged[path][action] = true
			}
		}
	}
	return merged
}
