// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/feedcore/internal/middleware"
)

// Authenticator resolves the caller. *auth.Middleware implements it.
type Authenticator interface {
	Authenticate(next http.Handler) http.Handler
}

// Router wires the handlers, authentication and shared middleware.
type Router struct {
	handler    *Handler
	auth       Authenticator
	middleware *ChiMiddleware
	metrics    http.Handler
}

// NewRouter creates a Router. A nil metrics handler serves the default
// Prometheus registry.
func NewRouter(handler *Handler, authn Authenticator, mw *ChiMiddleware, metricsHandler http.Handler) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	return &Router{handler: handler, auth: authn, middleware: mw, metrics: metricsHandler}
}

// SetupChi returns the HTTP handler for every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(APISecurityHeaders())
	r.Use(router.middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health/live", router.handler.HealthLive)
	r.Get("/health/ready", router.handler.HealthReady)
	r.Method(http.MethodGet, "/metrics", router.metrics)

	r.Route("/feed", func(r chi.Router) {
		r.Use(router.auth.Authenticate)
		r.Use(router.middleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/", router.handler.GetFeed)
		r.Post("/seen", router.handler.MarkSeen)
		r.Delete("/cache", router.handler.InvalidateCache)
	})

	return r
}
