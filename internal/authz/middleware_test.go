package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/shared"
)

func newTestHandler(mw Middleware, path, action string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := DecisionFromContext(r.Context())
		if !ok {
			http.Error(w, "decision missing", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mw.Require(path, action)(next)
}

func TestRequireWithoutPrincipal(t *testing.T) {
	mw := Middleware{Authorizer: NewAuthorizer(DefaultCapabilities())}
	handler := newTestHandler(mw, shared.PathHeadcount, ActionView)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDeniedBodyShape(t *testing.T) {
	mw := Middleware{Authorizer: NewAuthorizer(DefaultCapabilities())}
	handler := newTestHandler(mw, shared.PathBackofficeUsers, ActionEdit)

	principal := Principal{ID: 7, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("12345")},
	}}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), principal))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Detail     string `json:"detail"`
		Permission struct {
			Path     string `json:"path"`
			Action   string `json:"action"`
			Required string `json:"required"`
		} `json:"permission"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Detail)
	assert.Equal(t, shared.PathBackofficeUsers, body.Permission.Path)
	assert.Equal(t, ActionEdit, body.Permission.Action)
	assert.Equal(t, "backoffice.users.edit", body.Permission.Required)
}

func TestRequireGrantedStoresDecision(t *testing.T) {
	mw := Middleware{Authorizer: NewAuthorizer(DefaultCapabilities())}
	handler := newTestHandler(mw, shared.PathHeadcount, ActionView)

	principal := Principal{ID: 7, Assignments: []RoleAssignment{
		{Role: RoleUserStd, On: UnitScope("12345")},
	}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), principal))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteDenialScopeBlock(t *testing.T) {
	err := &InsufficientScopeError{
		PermissionDeniedError: PermissionDeniedError{Permission: shared.PathHeadcount, Action: ActionEdit},
		UserScope:             []Scope{UnitScope("12345")},
		RequiredScope:         UnitScope("99999"),
	}
	rec := httptest.NewRecorder()
	require.True(t, WriteDenial(rec, err))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{
		"detail": "authz: permission modules.headcount.edit granted but scope unit:99999 not covered",
		"permission": {"path": "modules.headcount", "action": "edit", "required": "modules.headcount.edit"},
		"scope": {"user_scope": [{"unit":"12345"}], "required_scope": {"unit":"99999"}}
	}`, rec.Body.String())
}

func TestWriteDenialUnrelatedError(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.False(t, WriteDenial(rec, assert.AnError))
}
