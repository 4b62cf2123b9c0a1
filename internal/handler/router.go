package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nexusnotes/nexus-notes/internal/middleware"
	"github.com/nexusnotes/nexus-notes/internal/service"
)

// RouterConfig carries the services and HTTP settings the router needs.
type RouterConfig struct {
	Auth  *service.AuthService
	Notes *service.NoteService

	Version        string
	AllowedOrigins []string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the HTTP API. ctx bounds the background work of the
// rate limiter.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth)
	noteHandler := NewNoteHandler(cfg.Notes)
	healthHandler := NewHealthHandler(cfg.Version)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", healthHandler.HandleRoot)
	r.Get("/health", healthHandler.HandleHealth)

	requireAuth := middleware.RequireAuth(cfg.Auth, service.ErrUnauthenticated)

	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/google-login", authHandler.HandleGoogleLogin)
		})

		r.With(requireAuth).Get("/profile", authHandler.HandleProfile)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", noteHandler.HandleList)
		r.Post("/", noteHandler.HandleCreate)
		r.Put("/{id}", noteHandler.HandleUpdate)
		r.Delete("/{id}", noteHandler.HandleDelete)
	})

	return r
}
