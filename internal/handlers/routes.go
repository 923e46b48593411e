package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abrezinsky/prizewheel/internal/auth"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)

	// Public wheel API
	r.Group(func(r chi.Router) {
		if h.publicLimit != nil {
			r.Use(h.publicLimit)
		}

		r.Route("/api/wheel/{tenantID}", func(r chi.Router) {
			r.Get("/", h.handleGetWheel)
			r.Post("/eligibility", h.handleEligibility)
			r.Post("/spin", h.handleSpin)

			r.Get("/projects/{projectID}", h.handleGetWheel)
			r.Post("/projects/{projectID}/eligibility", h.handleEligibility)
			r.Post("/projects/{projectID}/spin", h.handleSpin)
		})

		r.Get("/api/redeem/{token}", h.handleGetRedemption)
		r.Post("/api/redeem/{token}", h.handleClaim)

		r.Post("/api/auth/signup", h.handleSignup)
		r.Post("/api/auth/login", h.handleLogin)
	})

	// Tenant dashboard API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Tenant
		r.Get("/api/admin/tenant", h.handleGetTenant)
		r.Put("/api/admin/tenant", h.handleUpdateTenant)

		// Projects
		r.Get("/api/admin/projects", h.handleListProjects)
		r.Post("/api/admin/projects", h.handleCreateProject)
		r.Get("/api/admin/projects/{id}", h.handleGetProject)
		r.Put("/api/admin/projects/{id}", h.handleUpdateProject)
		r.Put("/api/admin/projects/{id}/status", h.handleSetProjectStatus)
		r.Delete("/api/admin/projects/{id}", h.handleDeleteProject)

		// Prizes
		r.Get("/api/admin/prizes", h.handleListPrizes)
		r.Post("/api/admin/prizes", h.handleCreatePrize)
		r.Get("/api/admin/prizes/{id}", h.handleGetPrize)
		r.Put("/api/admin/prizes/{id}", h.handleUpdatePrize)
		r.Delete("/api/admin/prizes/{id}", h.handleDeletePrize)

		// Leads & Stats
		r.Get("/api/admin/spins", h.handleListSpins)
		r.Get("/api/admin/stats", h.handleGetStats)

		// Live spin feed
		if h.Live != nil {
			r.Get("/api/admin/live", h.Live.ServeWs)
		}

		// Platform owner
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOwner)
			r.Get("/api/owner/tenants", h.handleOwnerTenants)
			r.Get("/api/owner/stats", h.handleOwnerStats)
		})
	})

	return r
}
