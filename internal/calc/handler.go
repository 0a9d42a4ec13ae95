package calc

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/platform/httpx"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Handler exposes the emission summary endpoint.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	authorizer *authz.Authorizer
	authz      authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorizer *authz.Authorizer, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authorizer: authorizer, authz: mw}
}

// MountRoutes registers calculation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.PathInventories, authz.ActionView))
		r.Get("/{id}/summary", h.summary)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	report, err := h.service.Report(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	target := &authz.TargetRecord{
		ID:     strconv.FormatInt(report.ID, 10),
		UnitID: strconv.FormatInt(report.UnitID, 10),
	}
	decision, err := h.authorizer.Authorize(principal, shared.PathInventories, authz.ActionView, target)
	if err != nil {
		if authz.WriteDenial(w, err) {
			return
		}
		if h.logger != nil {
			h.logger.Error("authorize summary access", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summarize(r.Context(), decision.Filter, report)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
