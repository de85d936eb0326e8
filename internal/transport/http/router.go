package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vid-verifier/internal/config"
	"github.com/vid-verifier/internal/transport/http/handler"
	appmiddleware "github.com/vid-verifier/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of the rate limiter's cleanup loop.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Starting a verification costs a provider call and a token, so it is throttled per client.
	startRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.StartRateLimit), cfg.StartRateBurst)

	healthH := handler.NewHealthHandler()
	presentationH := handler.NewPresentationHandler(deps.Presentations)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(startRL.Limit).Post("/createPresentationRequest", presentationH.Start)
		r.Post("/callback", presentationH.Callback)
		r.Get("/presentations/{id}/status", presentationH.Status)
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
