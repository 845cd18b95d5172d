// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package api provides HTTP routing and handlers using the chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veridect/veridect/internal/config"
)

// NewRouter assembles the HTTP surface: the analyze endpoint, health and
// version probes, and Prometheus metrics.
func NewRouter(cfg *config.Config, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Instrument)
		if !cfg.Server.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.Server.RateLimitReqs, cfg.Server.RateLimitWindow))
		}

		r.Post("/analyze", handler.Analyze)
		r.Get("/version", handler.Version)

		r.Route("/health", func(r chi.Router) {
			r.Get("/live", handler.HealthLive)
			r.Get("/ready", handler.HealthReady)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
