/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logger:     Request logging
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/schedule/*    Computed schedules and summaries
  /api/teams/*       Team directory
  /api/patterns/*    Rotation pattern configs
  /api/assignments   User assignments
  /api/exceptions/*  Schedule deviations
  /api/admin/*       Cache control, demo seed

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Computed schedules
		r.Route("/schedule", func(r chi.Router) {
			r.Get("/day", h.GetDay)
			r.Get("/range", h.GetRange)
			r.Get("/month", h.GetMonth)
			r.Get("/summary", h.GetSummary)
		})

		// Team directory
		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.ListTeams)
			r.Post("/", h.CreateTeam)
		})

		// Rotation patterns
		r.Route("/patterns", func(r chi.Router) {
			r.Get("/", h.ListPatterns)
			r.Post("/", h.CreatePattern)
			r.Get("/{id}", h.GetPattern)
		})

		// User assignments
		r.Get("/users/{id}/assignments", h.GetAssignments)
		r.Post("/assignments", h.CreateAssignment)

		// Exceptions
		r.Route("/exceptions", func(r chi.Router) {
			r.Get("/", h.ListExceptions)
			r.Post("/", h.CreateException)
			r.Get("/{id}", h.GetException)
			r.Delete("/{id}", h.CancelException)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Post("/cache/clear", h.ClearCache)
			r.Get("/cache/stats", h.CacheStats)
			r.Post("/seed", h.SeedDemo)
		})
	})

	return r
}
