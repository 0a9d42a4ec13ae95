package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/platform/httpx"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Handler exposes carbon report endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	authorizer *authz.Authorizer
	authz      authz.Middleware
	validator  *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorizer *authz.Authorizer, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authorizer: authorizer, authz: mw, validator: validator.New()}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathInventories, authz.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathInventories, authz.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathInventories, authz.ActionEdit))
		r.Put("/{id}", h.rename)
		r.Post("/{id}/open", h.open)
		r.Post("/{id}/reopen", h.reopen)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathInventories, authz.ActionClose))
		r.Post("/{id}/close", h.close)
	})
}

type createReportRequest struct {
	UnitID int64  `json:"unit_id" validate:"required,gt=0"`
	Year   int    `json:"year" validate:"required"`
	Title  string `json:"title" validate:"max=255"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	decision, _ := authz.DecisionFromContext(r.Context())
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	reports, err := h.service.List(r.Context(), decision.Filter, year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"inventories": reports})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadAuthorized(w, r, authz.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	// Creation targets a unit the principal may not be scoped to; check it
	// like a record owned by that unit.
	target := &authz.TargetRecord{UnitID: strconv.FormatInt(req.UnitID, 10)}
	if _, err := h.authorizer.Authorize(principal, shared.PathInventories, authz.ActionCreate, target); err != nil {
		h.respondDenial(w, err)
		return
	}
	report, err := h.service.Create(r.Context(), principal.ID, req.UnitID, req.Year, req.Title)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, report)
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadAuthorized(w, r, authz.ActionEdit)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title" validate:"required,max=255"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	updated, err := h.service.Rename(r.Context(), principal.ID, report.ID, req.Title)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, authz.ActionEdit, (*Service).Open)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, authz.ActionEdit, (*Service).Reopen)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, authz.ActionClose, (*Service).Close)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(*Service, context.Context, int64, int64) (Report, error)) {
	report, ok := h.loadAuthorized(w, r, action)
	if !ok {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	updated, err := fn(h.service, r.Context(), principal.ID, report.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// loadAuthorized fetches the report and runs the single-record scope check.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, action string) (Report, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return Report{}, false
	}
	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return Report{}, false
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	target := &authz.TargetRecord{
		ID:     strconv.FormatInt(report.ID, 10),
		UnitID: strconv.FormatInt(report.UnitID, 10),
	}
	if _, err := h.authorizer.Authorize(principal, shared.PathInventories, action, target); err != nil {
		h.respondDenial(w, err)
		return Report{}, false
	}
	return report, true
}

func (h *Handler) respondDenial(w http.ResponseWriter, err error) {
	if authz.WriteDenial(w, err) {
		return
	}
	if h.logger != nil {
		h.logger.Error("authorize report access", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
