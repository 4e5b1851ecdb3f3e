package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sensor-ingest/internal/config"
	"sensor-ingest/internal/handler"
	"sensor-ingest/internal/metrics"
	"sensor-ingest/internal/middleware"
	"sensor-ingest/internal/model"
	"sensor-ingest/internal/websocket"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Readings *handler.ReadingHandler
	Pages    *handler.PageHandler
	Health   *handler.HealthHandler
	Stream   *websocket.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", metrics.Handler())
	if h.Stream != nil {
		// Outside the timeout group: http.TimeoutHandler cannot be hijacked.
		r.Get("/ws/leituras", h.Stream.Stream)
	}

	r.Group(func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Post("/register", h.Auth.Register)
		api.Post("/login", h.Auth.Login)

		api.With(authMiddleware.RequireAuth, middleware.ValidateReading).Post("/dados-sensores", h.Readings.Create)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin)).Get("/dados-sensores", h.Readings.List)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin)).Delete("/limpar-dados", h.Readings.Clear)
		api.Get("/dados-sensores-json", h.Readings.ChartFeed)

		api.Get("/", h.Pages.Index)
		api.Get("/graficos", h.Pages.Charts)
	})

	return r
}
