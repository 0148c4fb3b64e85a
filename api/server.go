/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:        Request logging
  2. Recoverer:     Panic recovery (500 instead of crash)
  3. RequestID:     Unique ID per request for tracing
  4. CORS:          Cross-origin requests for frontend
  5. Authenticator: JWT bearer auth, applied to /api/attendance only

ROUTE GROUPS:
  /api/attendance/*   All attendance operations (authenticated)
  /healthz            Liveness probe (public)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, jwtSecret []byte) *chi.Mux {
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

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/attendance", func(r chi.Router) {
		r.Use(Authenticator(jwtSecret))

		// Clock actions
		r.Post("/clock-in", h.ClockIn)
		r.Post("/start-lunch", h.StartLunch)
		r.Post("/end-lunch", h.EndLunch)
		r.Post("/clock-out", h.ClockOut)

		// Leave
		r.Post("/log-vacation", h.LogVacation)
		r.Post("/log-sick", h.LogSick)

		// Read side
		r.Get("/status", h.Status)
		r.Get("/history", h.History)
		r.Get("/overtime-summary", h.OvertimeSummary)
		r.Get("/pay-rates", h.PayRates)
		r.Get("/balance", h.Balance)
		r.Get("/rules", h.Rules)

		// Record-scoped operations
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateRecord)
			r.Delete("/", h.DeleteRecord)
			r.Put("/vacation", h.UpdateVacation)
			r.Put("/sick", h.UpdateSick)

			// Approval workflow (manager only)
			r.Post("/approve", h.Approve)
			r.Post("/reject", h.Reject)
			r.Post("/request-correction", h.RequestCorrection)
		})
	})

	return r
}
