package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler   *handlers.AuthHandler
	HealthHandler *handlers.HealthHandler
	OAuthHandler  *handlers.OAuthHandler          // nil when no provider is configured
	AdminHandler  *handlers.AdminHandler          // nil unless ADMIN_SECRET is set
	RequireAdmin  func(http.Handler) http.Handler // X-Authgate-Admin-Secret for admin routes
	Log           zerolog.Logger
	Secure        func(http.Handler) http.Handler
	CORS          func(http.Handler) http.Handler
	Metrics       bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimid.AllowContentType("application/json"))
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/register", cfg.AuthHandler.Register)
			if cfg.AdminHandler != nil && cfg.RequireAdmin != nil {
				r.Group(func(r chi.Router) {
					r.Use(cfg.RequireAdmin)
					r.Post("/seed_user", cfg.AdminHandler.SeedUser)
					r.Post("/reset_attempts", cfg.AdminHandler.ResetAttempts)
				})
			}
		})
		r.Get("/session", cfg.AuthHandler.Session)
		if cfg.OAuthHandler != nil {
			r.Get("/auth/{provider}", cfg.OAuthHandler.Begin)
			r.Get("/auth/{provider}/callback", cfg.OAuthHandler.Callback)
		}
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
