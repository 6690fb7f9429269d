package routes

import (
	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/handlers"
	"github.com/culthread/backoffice/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	auditHandler *handlers.AuditHandler,
	sessionValidator auth.SessionValidator,
	adminRole string,
) {
	rateLimitConfig := middleware.DefaultLoginRateLimit()

	router.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/session", authHandler.Session)
		r.Get("/auth/attempts", authHandler.Attempts)

		// Audit trail, session-guarded and admin-only
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(sessionValidator))
			r.Use(auth.RequireRole(adminRole))

			r.Get("/audit/logs", auditHandler.List)
			r.Get("/audit/stats", auditHandler.Stats)
			r.Get("/audit/export", auditHandler.Export)
			r.Delete("/audit/logs", auditHandler.Clear)
		})
	})
}
