// Package httptransport assembles the public HTTP surface: middleware chain,
// API routes, health, metrics and media.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodgram/internal/platform/config"
	"foodgram/internal/platform/metrics"
	"foodgram/internal/platform/middleware"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/httputil"
)

// Routes is implemented by every domain handler.
type Routes interface {
	Register(r chi.Router)
}

// Dependencies is everything the router needs from main.
type Dependencies struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Authenticator middleware.Authenticator
	HTTP          config.HTTPConfig
	Checks        []HealthCheck

	// Media serves locally stored images under MediaPath. Nil when images
	// live in object storage.
	Media     http.Handler
	MediaPath string

	API []Routes
}

// NewRouter wires all public endpoints.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.StripSlashes)
	r.Use(chimw.GetHead)
	r.Use(middleware.CORS(d.HTTP.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger, d.Metrics))
	r.Use(middleware.Recovery(d.Logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:            "method_not_allowed",
			ErrorDescription: "method not allowed",
		})
	})

	r.Get("/health", healthHandler(d.Logger, d.Checks))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.Media != nil && d.MediaPath != "" {
		r.Handle(d.MediaPath+"/*", http.StripPrefix(d.MediaPath, d.Media))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.HTTP.RateLimitPerMin))
		if d.HTTP.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.HTTP.RequestTimeout))
		}
		r.Use(middleware.OptionalAuth(d.Authenticator, d.Logger))
		for _, routes := range d.API {
			routes.Register(r)
		}
	})
	return r
}
