package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/umbra-games/umbra-security/internal/anomaly"
	"github.com/umbra-games/umbra-security/internal/auth"
	"github.com/umbra-games/umbra-security/internal/observability"
	"github.com/umbra-games/umbra-security/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AnomalyHandler *anomaly.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, "Service is healthy.", map[string]any{
			"status":  "healthy",
			"service": "umbra-security-service",
		})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/anomalies", params.AnomalyHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
