package authz

import (
	"fmt"
	"strings"
)

// unrankedPriority sorts roles missing from the priority table after every
// ranked role. An unranked role that is the only candidate for a unit still
// wins the min, matching the bulk SQL expression below.
const unrankedPriority = 99

// rankedRoles fixes the total order over unit-scoped roles; lower wins.
// The slice is the single source of truth for both PriorityOf and the SQL
// CASE ladder so the two can never disagree.
var rankedRoles = []struct {
	Role     RoleName
	Priority int
}{
	{RoleUserPrincipal, 0},
	{RoleUserSecondary, 1},
	{RoleUserStd, 2},
}

// PriorityOf returns the role's place in the priority order.
func PriorityOf(role RoleName) int {
	for _, entry := range rankedRoles {
		if entry.Role == role {
			return entry.Priority
		}
	}
	return unrankedPriority
}

// PickRoleForUnit selects the highest-priority role the assignments grant on
// the given unit. The second return is false when no assignment is scoped to
// that unit. Ties resolve stably by input order.
func PickRoleForUnit(assignments []RoleAssignment, unitID string) (RoleName, bool) {
	var (
		best     RoleName
		bestPrio int
		found    bool
	)
	for _, a := range assignments {
		id, ok := a.On.UnitID()
		if !ok || id != unitID {
			continue
		}
		prio := PriorityOf(a.Role)
		if !found || prio < bestPrio {
			best = a.Role
			bestPrio = prio
			found = true
		}
	}
	return best, found
}

// RolePriorityCaseSQL renders the priority table as a CASE ladder over the
// given column, for ORDER BY clauses that pick the best role per unit in bulk.
// Output agrees with PriorityOf for every role.
func RolePriorityCaseSQL(column string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for _, entry := range rankedRoles {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", entry.Role, entry.Priority)
	}
	fmt.Fprintf(&b, " ELSE %d END", unrankedPriority)
	return b.String()
}
