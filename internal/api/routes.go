package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all routes.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", h.GetDataset)
		r.Get("/options", h.GetOptions)
		r.Get("/results", h.GetResults)
		r.Get("/events", h.GetEvents)
		r.Get("/funnel", h.GetFunnel)
		r.Get("/groups", h.GetGroups)
		r.Get("/positions", h.GetPositions)
		r.Get("/runs", h.GetRuns)
		r.Post("/refresh", h.Refresh)
		if h.hub != nil {
			r.Get("/stream", h.hub.HandleSSE)
		}

		r.Route("/export", func(r chi.Router) {
			r.Get("/results.csv", h.ExportResults)
			r.Get("/events.csv", h.ExportEvents)
			r.Get("/filtered_results.csv", h.ExportFilteredResults)
		})
	})

	return r
}
