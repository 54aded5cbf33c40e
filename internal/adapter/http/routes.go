package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Get("/tools", h.ListTools)

		r.Get("/pipelines", h.ListPipelines)
		r.Post("/pipelines/run", h.RunAdhocPipeline)
		r.Post("/pipelines/{id}/run", h.RunPipeline)

		r.Get("/cache/stats", h.CacheStats)
		r.Post("/cache/invalidate", h.InvalidateCache)

		r.Get("/paths/resolve", h.ResolvePath)
	})
}
