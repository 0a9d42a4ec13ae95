package audit

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/platform/httpx"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Handler exposes the audit timeline to backoffice operators.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathBackofficeAudit, authz.ActionView))
		r.Get("/", h.timeline)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathBackofficeAudit, authz.ActionExport))
		r.Get("/export", h.export)
	})
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Timeline(r.Context(), filtersFromQuery(r))
	if err != nil {
		if h.logger != nil {
			h.logger.Error("audit timeline", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": result.Rows, "paging": result.Paging})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Export(r.Context(), filtersFromQuery(r))
	if err != nil {
		if h.logger != nil {
			h.logger.Error("audit export", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_timeline.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"at", "actor_id", "actor_email", "action", "entity", "entity_id", "unit_id"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.At.Format(time.RFC3339),
			strconv.FormatInt(row.ActorID, 10),
			row.ActorEmail,
			row.Action,
			row.Entity,
			row.EntityID,
			row.UnitID,
		})
	}
	writer.Flush()
}

func filtersFromQuery(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	filters := TimelineFilters{
		Actor:  q.Get("actor"),
		Entity: q.Get("entity"),
		Action: q.Get("action"),
		UnitID: q.Get("unit_id"),
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.To = t
		}
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return filters
}
