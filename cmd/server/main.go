// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package main is the entry point for the Veridect server.
//
// Veridect scores how plausible it is that a video was synthetically
// generated. Media arrives as a direct upload or a remote URL, is
// acquired under a hard security policy (byte ceilings, wall-clock
// deadlines, private-address blocking), scored by independent signal
// adapters over ffprobe output, and fused into a calibrated verdict
// with a per-second timeline.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file and VERIDECT_* env (Koanf v2)
//  2. Resolver: bounded media acquisition with circuit breaker and host policy
//  3. Signals: ffprobe-backed metadata, frame and audio adapters
//  4. Fusion: weighted signal fusion and verdict mapping
//  5. HTTP server: chi router with the analyze, health, version and
//     metrics endpoints
//
// Everything long-running sits in a suture supervision tree: the spool
// janitor in the maintenance layer, the HTTP server in the api layer.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests get the configured shutdown
// timeout to finish, and their spool files are released.
//
// # Example Usage
//
//	export VERIDECT_SERVER_PORT=8420
//	export VERIDECT_RESOLVER_MAX_BYTES=104857600
//	export VERIDECT_RESOLVER_DENY_PRIVATE_ADDRESSES=true
//	./veridect
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veridect/veridect/internal/analyzer"
	"github.com/veridect/veridect/internal/api"
	"github.com/veridect/veridect/internal/config"
	"github.com/veridect/veridect/internal/fusion"
	"github.com/veridect/veridect/internal/logging"
	"github.com/veridect/veridect/internal/resolver"
	sig "github.com/veridect/veridect/internal/signal"
	"github.com/veridect/veridect/internal/signal/probe"
	"github.com/veridect/veridect/internal/supervisor"
	"github.com/veridect/veridect/internal/supervisor/services"
	"github.com/veridect/veridect/internal/timeline"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors use the default logger; logging config is unavailable.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Int64("max_bytes", cfg.Resolver.MaxBytes).
		Int64("max_upload_bytes", cfg.Resolver.MaxUploadBytes).
		Bool("deny_private_addresses", cfg.Resolver.DenyPrivateAddresses).
		Msg("Configuration loaded")

	res := resolver.New(cfg.Resolver)
	prober := probe.New(cfg.Signals.FFprobePath)

	runner := sig.NewRunner(cfg.Signals.Order, cfg.Signals.Timeout,
		sig.NewMetadataAdapter(prober),
		sig.NewFrameAdapter(prober),
		sig.NewAudioAdapter(prober),
	)
	engine := fusion.NewEngine(fusion.Config{
		Order:   cfg.Signals.Order,
		Weights: cfg.Signals.Weights,
	})
	mapper := fusion.NewMapper(fusion.Thresholds{
		RealMax: cfg.Decision.RealMax,
		AIMin:   cfg.Decision.AIMin,
	})
	bins := timeline.New(cfg.Timeline.BinWidth, cfg.Decision.AIMin)

	svc := analyzer.New(res, runner, engine, mapper, prober, bins, cfg.Signals.Weights)
	handler := api.NewHandler(svc, cfg, version)
	router := api.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(services.NewSpoolJanitorService(
		cfg.Resolver.SpoolDir,
		10*time.Minute,
		// Any request older than twice the fetch deadline is gone; an
		// hour leaves a wide margin for debugging with long timeouts.
		time.Hour,
	))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		logging.Info().Str("signal", s.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
