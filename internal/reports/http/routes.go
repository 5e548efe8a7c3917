package reportshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/garment-dashboard/internal/reports"
)

// MountRoutes registers the report pages, CSV exports and JSON endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/reports", h.handleOverview)
	r.Get("/reports/{section}/{name}", h.handlePage)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/{section}/{name}/export.csv", h.handleExport)
	})
	r.Get("/api/reports/"+reports.OverviewSlug, h.handleOverviewAPI)
	r.Get("/api/reports/{section}/{name}", h.handleAPI)
}
