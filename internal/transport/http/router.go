package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/go-registration-api/internal/application/registration"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/transport/http/handler"
	appmiddleware "github.com/go-registration-api/internal/transport/http/middleware"
)

// Deps holds the services the router wires into handlers.
type Deps struct {
	RegistrationSvc registration.Service
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(appmiddleware.Correlation)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.CorrelationHeader},
		ExposedHeaders:   []string{appmiddleware.CorrelationHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public registration endpoint.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	basicAuth := appmiddleware.BasicAuth(deps.RegistrationSvc)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(deps.RegistrationSvc)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		r.Group(func(r chi.Router) {
			r.Use(basicAuth)
			r.Post("/users/self/validate", userH.Validate)
			r.Get("/users/self", userH.GetSelf)
		})
	})

	return r
}
