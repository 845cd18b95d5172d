// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package metrics exposes the service's Prometheus metrics as package-level
// promauto collectors, registered on the default registry and served by the
// API layer at /metrics.
package metrics
