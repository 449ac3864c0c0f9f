/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/budgets/*   Budget, container, post and category management
  /api/holidays/*  Bank holiday table
  /api/preview     Draft pattern timeline
  /api/dashboard   Cross-budget projection summary
  /api/reset       Database reset (dev only)

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
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.ListBudgets)
			r.Post("/", h.CreateBudget)
			r.Get("/{id}", h.GetBudget)
			r.Delete("/{id}", h.DeleteBudget)
			r.Get("/{id}/containers", h.ListContainers)
			r.Post("/{id}/containers", h.SaveContainer)
			r.Get("/{id}/posts", h.ListPosts)
			r.Post("/{id}/posts", h.SavePost)
			r.Put("/{id}/categories", h.SetCategoryPool)
			r.Get("/{id}/forecast", h.Forecast)
		})

		r.Delete("/posts/{id}", h.DeletePost)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.SaveHoliday)
			r.Delete("/{date}", h.DeleteHoliday)
		})

		r.Post("/preview", h.Preview)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/reset", h.Reset)
	})

	return r
}
