package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/platform/httpx"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Verifier authenticates requests from bearer tokens and places the principal
// in the request context.
type Verifier struct {
	Tokens *TokenService
	Logger *slog.Logger
}

// RequireAuth rejects requests without a valid access token.
func (v Verifier) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		claims, err := v.Tokens.Verify(r.Context(), raw, TokenTypeAccess)
		if err != nil {
			v.respondVerifyError(w, err)
			return
		}
		principal, err := claims.Principal()
		if err != nil {
			if v.Logger != nil {
				v.Logger.Error("build principal from claims", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		ctx := authz.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (v Verifier) respondVerifyError(w http.ResponseWriter, err error) {
	var unknown *authz.UnknownRoleError
	if errors.As(err, &unknown) {
		// A role the deployment no longer understands is corrupted data,
		// not a login problem; fail closed and loudly.
		if v.Logger != nil {
			v.Logger.Error("token carries unknown role", slog.String("role", unknown.Role))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if errors.Is(err, shared.ErrTokenRevoked) {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token revoked")
		return
	}
	httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
