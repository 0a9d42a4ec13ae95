package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/carbonledger/carbonledger/internal/platform/httpx"
)

// denialPermission is the permission block every 403 body carries.
type denialPermission struct {
	Path     string `json:"path"`
	Action   string `json:"action"`
	Required string `json:"required"`
}

type denialScope struct {
	UserScope     []Scope `json:"user_scope"`
	RequiredScope Scope   `json:"required_scope"`
}

type denialRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type denialBody struct {
	Detail     string           `json:"detail"`
	Permission denialPermission `json:"permission"`
	Scope      *denialScope     `json:"scope,omitempty"`
	Record     *denialRecord    `json:"record,omitempty"`
}

// WriteDenial translates a permission-denial error into its 403 body shape.
// It reports false when the error is not part of the denial hierarchy.
func WriteDenial(w http.ResponseWriter, err error) bool {
	var scopeErr *InsufficientScopeError
	if errors.As(err, &scopeErr) {
		userScope := scopeErr.UserScope
		if userScope == nil {
			userScope = []Scope{}
		}
		httpx.JSON(w, http.StatusForbidden, denialBody{
			Detail:     scopeErr.Error(),
			Permission: denialPermission{Path: scopeErr.Permission, Action: scopeErr.Action, Required: scopeErr.Required()},
			Scope:      &denialScope{UserScope: userScope, RequiredScope: scopeErr.RequiredScope},
		})
		return true
	}
	var recordErr *RecordAccessDeniedError
	if errors.As(err, &recordErr) {
		httpx.JSON(w, http.StatusForbidden, denialBody{
			Detail:     recordErr.Error(),
			Permission: denialPermission{Path: recordErr.Permission, Action: recordErr.Action, Required: recordErr.Required()},
			Record:     &denialRecord{ID: recordErr.RecordID, Reason: recordErr.Reason},
		})
		return true
	}
	var deniedErr *PermissionDeniedError
	if errors.As(err, &deniedErr) {
		httpx.JSON(w, http.StatusForbidden, denialBody{
			Detail:     deniedErr.Error(),
			Permission: denialPermission{Path: deniedErr.Permission, Action: deniedErr.Action, Required: deniedErr.Required()},
		})
		return true
	}
	return false
}

// DenialRecorder counts denied requests, typically a metrics registry.
type DenialRecorder interface {
	RecordAuthzDenial(path, action string)
}

// Middleware wires authorization checks into HTTP handlers.
type Middleware struct {
	Authorizer *Authorizer
	Logger     *slog.Logger
	Denials    DenialRecorder
}

// Require gates a route on the permission path and action. On success the
// collection-level decision (including the record filter) is stored in the
// request context for the handler.
func (m Middleware) Require(path, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			decision, err := m.Authorizer.Authorize(principal, path, action, nil)
			if err != nil {
				if WriteDenial(w, err) {
					if m.Denials != nil {
						m.Denials.RecordAuthzDenial(path, action)
					}
					return
				}
				if m.Logger != nil {
					m.Logger.Error("authorize request", slog.String("path", path), slog.String("action", action), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			ctx := ContextWithDecision(r.Context(), decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
