package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carbonledger/carbonledger/internal/audit"
	"github.com/carbonledger/carbonledger/internal/auth"
	"github.com/carbonledger/carbonledger/internal/calc"
	"github.com/carbonledger/carbonledger/internal/entries"
	"github.com/carbonledger/carbonledger/internal/factors"
	"github.com/carbonledger/carbonledger/internal/importer"
	"github.com/carbonledger/carbonledger/internal/inventory"
	"github.com/carbonledger/carbonledger/internal/observability"
	"github.com/carbonledger/carbonledger/internal/units"
	"github.com/carbonledger/carbonledger/internal/users"
	"github.com/carbonledger/carbonledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         *auth.Verifier
	AuthHandler      *auth.Handler
	UnitsHandler     *units.Handler
	UsersHandler     *users.Handler
	InventoryHandler *inventory.Handler
	EntriesHandler   *entries.Handler
	FactorsHandler   *factors.Handler
	CalcHandler      *calc.Handler
	ImportsHandler   *importer.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with CarbonLedger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Verifier.RequireAuth)

			r.Route("/units", params.UnitsHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/inventories", params.InventoryHandler.MountRoutes)
			r.Route("/entries", params.EntriesHandler.MountRoutes)
			r.Route("/factors", params.FactorsHandler.MountRoutes)
			r.Route("/calc", params.CalcHandler.MountRoutes)
			r.Route("/imports", params.ImportsHandler.MountRoutes)
			r.Route("/audit", params.AuditHandler.MountRoutes)

			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
