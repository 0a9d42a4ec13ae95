package entries

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/platform/httpx"
)

// Handler exposes activity data endpoints. The permission path depends on the
// entry's category, so authorization runs inside each handler instead of a
// route-level middleware.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	authorizer *authz.Authorizer
	validator  *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorizer *authz.Authorizer) *Handler {
	return &Handler{logger: logger, service: service, authorizer: authorizer, validator: validator.New()}
}

// MountRoutes registers entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type createEntryRequest struct {
	InventoryID int64   `json:"inventory_id" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"required"`
	Label       string  `json:"label" validate:"required,max=255"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	UnitMeasure string  `json:"unit_measure" validate:"max=32"`
	FactorKey   string  `json:"factor_key" validate:"max=128"`
}

type updateEntryRequest struct {
	Label       string  `json:"label" validate:"required,max=255"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	UnitMeasure string  `json:"unit_measure" validate:"max=32"`
	FactorKey   string  `json:"factor_key" validate:"max=128"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	inventoryID, err := strconv.ParseInt(r.URL.Query().Get("inventory_id"), 10, 64)
	if err != nil || inventoryID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: inventory_id is required", httpx.ErrValidation))
		return
	}
	category, err := ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, err := h.authorizer.Authorize(principal, category.PermissionPath(), authz.ActionView, nil)
	if err != nil {
		h.respondDenial(w, err)
		return
	}
	items, err := h.service.List(r.Context(), decision.Filter, inventoryID, category)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	category, err := ParseCategory(req.Category)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	report, err := h.service.Report(r.Context(), req.InventoryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	target := &authz.TargetRecord{UnitID: strconv.FormatInt(report.UnitID, 10)}
	if _, err := h.authorizer.Authorize(principal, category.PermissionPath(), authz.ActionCreate, target); err != nil {
		h.respondDenial(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), principal.ID, CreateParams{
		InventoryID: req.InventoryID,
		Category:    category,
		Label:       req.Label,
		Quantity:    req.Quantity,
		UnitMeasure: req.UnitMeasure,
		FactorKey:   req.FactorKey,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadAuthorized(w, r, authz.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadAuthorized(w, r, authz.ActionEdit)
	if !ok {
		return
	}
	var req updateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), principal.ID, entry, UpdateParams{
		Label:       req.Label,
		Quantity:    req.Quantity,
		UnitMeasure: req.UnitMeasure,
		FactorKey:   req.FactorKey,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadAuthorized(w, r, authz.ActionDelete)
	if !ok {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal.ID, entry); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

// loadAuthorized fetches the entry and runs the single-record check. Entries
// synced from an import feed stay readable but reject edit and delete.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, action string) (Entry, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return Entry{}, false
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return Entry{}, false
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	target := &authz.TargetRecord{
		ID:     strconv.FormatInt(entry.ID, 10),
		UnitID: strconv.FormatInt(entry.UnitID, 10),
		Synced: entry.Synced,
	}
	if _, err := h.authorizer.Authorize(principal, entry.Category.PermissionPath(), action, target); err != nil {
		h.respondDenial(w, err)
		return Entry{}, false
	}
	return entry, true
}

func (h *Handler) respondDenial(w http.ResponseWriter, err error) {
	if authz.WriteDenial(w, err) {
		return
	}
	if h.logger != nil {
		h.logger.Error("authorize entry access", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
