package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/authz"
)

func newAuthRouter(t *testing.T, user *User) (chi.Router, *TokenService) {
	t.Helper()
	svc, tokens := newTestService(t, user)
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)

	verifier := Verifier{Tokens: tokens}
	r.Group(func(r chi.Router) {
		r.Use(verifier.RequireAuth)
		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authz.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "no principal", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(principal.Email))
		})
	})
	return r, tokens
}

func TestLoginEndpointAndProtectedRoute(t *testing.T) {
	user := testUser(t, "correct horse")
	router, _ := newAuthRouter(t, user)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"user@example.com","password":"correct horse"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "access_token")

	var pair TokenPair
	require.NoError(t, json.Unmarshal([]byte(body), &pair))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", rec.Body.String())
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	router, _ := newAuthRouter(t, testUser(t, "correct horse"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEndpointValidation(t *testing.T) {
	router, _ := newAuthRouter(t, testUser(t, "correct horse"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"not-an-email","password":"short"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokedTokenRejectedByMiddleware(t *testing.T) {
	user := testUser(t, "correct horse")
	router, tokens := newAuthRouter(t, user)

	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)

	claims, err := tokens.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	require.NoError(t, tokens.Revoke(context.Background(), claims))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
