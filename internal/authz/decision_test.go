package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/shared"
)

func TestAuthorizeMissingBaseGrant(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1}

	_, err := auth.Authorize(principal, shared.PathEquipment, ActionView, nil)
	require.Error(t, err)

	var denied *PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	var scopeErr *InsufficientScopeError
	assert.False(t, errors.As(err, &scopeErr), "missing base grant must not be reported as a scope problem")
	assert.Equal(t, shared.PathEquipment, denied.Permission)
	assert.Equal(t, ActionView, denied.Action)
	assert.Equal(t, "modules.equipment.view", denied.Required())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAuthorizeScopedDenial(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("12345")},
	}}

	_, err := auth.Authorize(principal, shared.PathHeadcount, ActionEdit, &TargetRecord{ID: "rec-1", UnitID: "99999"})
	require.Error(t, err)

	var scopeErr *InsufficientScopeError
	require.True(t, errors.As(err, &scopeErr))
	assert.Equal(t, []Scope{UnitScope("12345")}, scopeErr.UserScope)
	assert.Equal(t, UnitScope("99999"), scopeErr.RequiredScope)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAuthorizeMatchingUnitAllowed(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("12345")},
	}}

	_, err := auth.Authorize(principal, shared.PathHeadcount, ActionEdit, &TargetRecord{ID: "rec-1", UnitID: "12345"})
	assert.NoError(t, err)
}

func TestAuthorizeGlobalGrantCoversAnyUnit(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleServiceManager, On: GlobalScope()},
	}}

	decision, err := auth.Authorize(principal, shared.PathHeadcount, ActionEdit, &TargetRecord{ID: "rec-1", UnitID: "99999"})
	require.NoError(t, err)
	assert.True(t, decision.Filter.All)
}

func TestAuthorizeSyncedRecordReadOnly(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleServiceManager, On: GlobalScope()},
	}}
	target := &TargetRecord{ID: "rec-9", UnitID: "1", Synced: true}

	_, err := auth.Authorize(principal, shared.PathEquipment, ActionEdit, target)
	var recordErr *RecordAccessDeniedError
	require.True(t, errors.As(err, &recordErr))
	assert.Equal(t, "rec-9", recordErr.RecordID)
	assert.NotEmpty(t, recordErr.Reason)

	// The rule only blocks destructive actions.
	_, err = auth.Authorize(principal, shared.PathEquipment, ActionView, target)
	assert.NoError(t, err)
}

func TestAuthorizeCollectionFilter(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("b")},
		{Role: RoleUserPrincipal, On: UnitScope("a")},
		{Role: RoleUserStd, On: UnitScope("b")},
	}}

	decision, err := auth.Authorize(principal, shared.PathHeadcount, ActionView, nil)
	require.NoError(t, err)
	assert.False(t, decision.Filter.All)
	assert.Equal(t, []string{"b", "a"}, decision.Filter.UnitIDs)
}

func TestAuthorizeCollectionFilterGlobalWins(t *testing.T) {
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("b")},
		{Role: RoleSuperadmin, On: GlobalScope()},
	}}

	decision, err := auth.Authorize(principal, shared.PathHeadcount, ActionView, nil)
	require.NoError(t, err)
	assert.True(t, decision.Filter.All)
	assert.Empty(t, decision.Filter.UnitIDs)
}

func TestAuthorizeFilterOnlyCountsGrantingScopes(t *testing.T) {
	// The backoffice role does not grant headcount edit, so its unit must not
	// leak into the filter for that permission.
	auth := NewAuthorizer(DefaultCapabilities())
	principal := Principal{ID: 1, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("a")},
		{Role: RoleBackoffice, On: UnitScope("z")},
	}}

	decision, err := auth.Authorize(principal, shared.PathHeadcount, ActionEdit, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, decision.Filter.UnitIDs)
}
