package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/database"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, verifier Verifier, store database.Store, adapters map[string]string) http.Handler {
	r := chi.NewRouter()

	handler := NewHandler(verifier, store, adapters, cfg.Server.MaxUploadSize)

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(store))
			r.Use(AuditMiddleware(store))
			r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))

			r.Post("/verify/text", handler.VerifyText)
			r.Post("/verify/image", handler.VerifyImage)

			r.Get("/audit", handler.GetAuditLogs)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminMiddleware(cfg.Server.AdminToken))
			r.Post("/keys", handler.CreateAPIKey)
			r.Get("/keys", handler.ListAPIKeys)
			r.Delete("/keys/{id}", handler.DeleteAPIKey)
		})
	})

	return r
}
