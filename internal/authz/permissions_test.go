package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/shared"
)

func TestCalculatePermissionsEmptyInput(t *testing.T) {
	perms := CalculatePermissions(DefaultCapabilities(), nil)
	require.Empty(t, perms)
	assert.False(t, perms.Allows(shared.PathHeadcount, ActionView))
	assert.False(t, perms.Allows("anything.at.all", "whatever"))
}

func TestCalculatePermissionsUnionMonotonic(t *testing.T) {
	table := DefaultCapabilities()
	a := RoleAssignment{Role: RoleUserStd, On: UnitScope("1")}
	b := RoleAssignment{Role: RoleBackoffice, On: GlobalScope()}

	onlyA := CalculatePermissions(table, []RoleAssignment{a})
	onlyB := CalculatePermissions(table, []RoleAssignment{b})
	both := CalculatePermissions(table, []RoleAssignment{a, b})

	for _, single := range []PermissionMap{onlyA, onlyB} {
		for path, actions := range single {
			for action, granted := range actions {
				if granted {
					assert.True(t, both.Allows(path, action), "grant %s.%s lost by merging", path, action)
				}
			}
		}
	}
}

func TestCalculatePermissionsOrderIndependent(t *testing.T) {
	table := DefaultCapabilities()
	a := RoleAssignment{Role: RoleUserPrincipal, On: UnitScope("1")}
	b := RoleAssignment{Role: RoleServiceManager, On: GlobalScope()}

	assert.Equal(t,
		CalculatePermissions(table, []RoleAssignment{a, b}),
		CalculatePermissions(table, []RoleAssignment{b, a}))
}

func TestCalculatePermissionsSuperadmin(t *testing.T) {
	perms := CalculatePermissions(DefaultCapabilities(), []RoleAssignment{
		{Role: RoleSuperadmin, On: GlobalScope()},
	})
	assert.Equal(t, ActionSet{ActionView: true, ActionEdit: true, ActionExport: true}, perms[shared.PathBackofficeUsers])
}

func TestDefaultCapabilitiesEditImpliesCreateOnModules(t *testing.T) {
	// Data collection depends on every editing role being able to add
	// entries; a module grant with edit but not create would strand the
	// create endpoint for that role.
	table := DefaultCapabilities()
	modulePaths := []string{shared.PathProfessionalTravel, shared.PathHeadcount, shared.PathEquipment}
	for role, grants := range table {
		for _, path := range modulePaths {
			if grants[path][ActionEdit] {
				assert.True(t, grants[path][ActionCreate], "role %s can edit %s but not create", role, path)
			}
		}
	}
}

func TestCalculatePermissionsScopeNotFoldedIntoGrants(t *testing.T) {
	// A unit-scoped role yields the same boolean map as a global one; scope
	// only narrows which records the grant applies to.
	table := DefaultCapabilities()
	scoped := CalculatePermissions(table, []RoleAssignment{{Role: RoleUserStd, On: UnitScope("9")}})
	global := CalculatePermissions(table, []RoleAssignment{{Role: RoleUserStd, On: GlobalScope()}})
	assert.Equal(t, global, scoped)
}
