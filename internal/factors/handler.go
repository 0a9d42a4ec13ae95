package factors

import (
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

// Handler exposes emission factor administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers factor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathBackofficeFactors, authz.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathBackofficeFactors, authz.ActionEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type createFactorRequest struct {
	Category    string  `json:"category" validate:"required,max=64"`
	Key         string  `json:"key" validate:"required,max=128"`
	Year        int     `json:"year" validate:"required"`
	Value       float64 `json:"value" validate:"required,gt=0"`
	UnitMeasure string  `json:"unit_measure" validate:"required,max=32"`
	Source      string  `json:"source" validate:"max=255"`
}

type updateFactorRequest struct {
	Value       float64 `json:"value" validate:"required,gt=0"`
	UnitMeasure string  `json:"unit_measure" validate:"required,max=32"`
	Source      string  `json:"source" validate:"max=255"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	items, err := h.service.List(r.Context(), r.URL.Query().Get("category"), year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"factors": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	factor, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, factor)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createFactorRequest
	if !h.decode(w, r, &req) {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	factor, err := h.service.Create(r.Context(), principal.ID, Factor{
		Category:    req.Category,
		Key:         req.Key,
		Year:        req.Year,
		Value:       req.Value,
		UnitMeasure: req.UnitMeasure,
		Source:      req.Source,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, factor)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateFactorRequest
	if !h.decode(w, r, &req) {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	factor, err := h.service.Update(r.Context(), principal.ID, id, req.Value, req.UnitMeasure, req.Source)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, factor)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal.ID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}
