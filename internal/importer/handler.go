package importer

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/entries"
	"github.com/carbonledger/carbonledger/internal/platform/httpx"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Handler exposes provider upload endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
	maxSize int64
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware, maxSize int64) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, maxSize: maxSize}
}

// MountRoutes registers import routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathBackofficeImports, authz.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathBackofficeImports, authz.ActionRun))
		r.Post("/", h.upload)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := h.service.List(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"imports": batches})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: multipart form required", httpx.ErrValidation))
		return
	}
	inventoryID, err := strconv.ParseInt(r.FormValue("inventory_id"), 10, 64)
	if err != nil || inventoryID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: inventory_id is required", httpx.ErrValidation))
		return
	}
	category, err := entries.ParseCategory(r.FormValue("category"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	provider := Provider(r.FormValue("provider"))
	if provider == "" {
		provider = ProviderCSV
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: file is required", httpx.ErrValidation))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: unreadable file", httpx.ErrValidation))
		return
	}

	principal, _ := authz.PrincipalFromContext(r.Context())
	batch, err := h.service.Upload(r.Context(), principal.ID, UploadParams{
		InventoryID: inventoryID,
		Category:    category,
		Provider:    provider,
		Filename:    header.Filename,
		Data:        data,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, batch)
}
