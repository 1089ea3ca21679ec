package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	OrganizationsHandler *handlers.OrganizationsHandler
	HealthHandler        *handlers.HealthHandler
	AdminHandler         *handlers.AdminHandler
	RequireAdmin         func(http.Handler) http.Handler // X-Porti-Admin-Secret for /admin/*
	Log                  zerolog.Logger
	Secure               func(http.Handler) http.Handler
	CORS                 func(http.Handler) http.Handler
	IPRateLimit          func(http.Handler) http.Handler
	Metrics              bool // expose /metrics
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
	r.Use(chimid.AllowContentType("application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
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

	if cfg.OrganizationsHandler != nil {
		h := cfg.OrganizationsHandler
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(chimid.SetHeader("X-API-Version", "v1"))
			r.Route("/organizations", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/", h.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Get)
					r.Get("/log", h.Log)
					r.Post("/platform-accounts", h.AddPlatformAccount)
					r.Delete("/platform-accounts/{account_id}", h.RemovePlatformAccount)
				})
			})
		})
	}

	if cfg.AdminHandler != nil && cfg.RequireAdmin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.RequireAdmin)
			r.Post("/projections/replay-parked", cfg.AdminHandler.ReplayParked)
		})
	}

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
