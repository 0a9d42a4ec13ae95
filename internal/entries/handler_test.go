package entries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/inventory"
)

func newEntriesRouter(t *testing.T, principal authz.Principal) (*chi.Mux, *mockRepo) {
	t.Helper()
	svc, repo, _ := newTestService()
	handler := NewHandler(nil, svc, authz.NewAuthorizer(authz.DefaultCapabilities()))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), principal)))
		})
	})
	router.Route("/entries", handler.MountRoutes)
	return router, repo
}

func stdPrincipal() authz.Principal {
	return authz.Principal{
		ID:    42,
		Email: "user@example.com",
		Assignments: []authz.RoleAssignment{
			{Role: authz.RoleUserStd, On: authz.UnitScope("10")},
		},
	}
}

func TestSyncedEntryReadableButNotEditable(t *testing.T) {
	router, repo := newEntriesRouter(t, stdPrincipal())
	seeded, err := repo.Create(context.Background(), Entry{
		InventoryID: 1, UnitID: 10, Category: CategoryTravel,
		Label: "Imported commute", Quantity: 120, Synced: true, Source: "import",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entries/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"label":"Edited commute","quantity":99}`)
	req := httptest.NewRequest(http.MethodPut, "/entries/1", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{
		"detail": "authz: record 1: record is synchronized from an external provider and read-only",
		"permission": {"path": "modules.professional_travel", "action": "edit", "required": "modules.professional_travel.edit"},
		"record": {"id": "1", "reason": "record is synchronized from an external provider and read-only"}
	}`, rec.Body.String())

	got, err := repo.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Imported commute", got.Label)
}

func TestEntryOutsideScopeRejected(t *testing.T) {
	router, repo := newEntriesRouter(t, stdPrincipal())
	_, err := repo.Create(context.Background(), Entry{
		InventoryID: 1, UnitID: 77, Category: CategoryTravel, Label: "Other unit trip", Quantity: 5,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entries/1", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"required_scope"`)
}

func TestListRejectsUnknownCategory(t *testing.T) {
	router, _ := newEntriesRouter(t, stdPrincipal())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entries?inventory_id=1&category=electricity", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEntryInScope(t *testing.T) {
	router, repo := newEntriesRouter(t, stdPrincipal())

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"inventory_id":1,"category":"equipment","label":"Laptop fleet","quantity":30,"unit_measure":"unit","factor_key":"equipment.laptop"}`)
	req := httptest.NewRequest(http.MethodPost, "/entries", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Laptop fleet", created.Label)
	assert.Equal(t, int64(10), created.UnitID)
	assert.Equal(t, CategoryEquipment, created.Category)
	assert.False(t, created.Synced)
}

func TestCreateChecksReportUnitScope(t *testing.T) {
	svc, _, reports := newTestService()
	reports.reports[3] = inventory.Report{ID: 3, UnitID: 77, Year: 2025, Status: inventory.StatusOpen}
	handler := NewHandler(nil, svc, authz.NewAuthorizer(authz.DefaultCapabilities()))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), stdPrincipal())))
		})
	})
	router.Route("/entries", handler.MountRoutes)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"inventory_id":3,"category":"equipment","label":"Laptop fleet","quantity":30}`)
	req := httptest.NewRequest(http.MethodPost, "/entries", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The principal holds the create grant; the denial must come from the
	// scope gate, pointing at the report's unit.
	assert.Contains(t, rec.Body.String(), `"scope"`)
	assert.Contains(t, rec.Body.String(), `"required_scope":{"unit":"77"}`)
	assert.Contains(t, rec.Body.String(), `{"unit":"10"}`)
}
