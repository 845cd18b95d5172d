// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package signal defines the score contract between the analysis pipeline
// and the heuristic signal adapters, and runs adapters concurrently under
// per-adapter deadlines.
//
// Adapters are isolation boundaries: they rely on external tooling (ffprobe,
// packet inspection) whose failures must never abort the request. An adapter
// that errors, panics or exceeds its budget is reported as an unavailable
// signal and fusion proceeds with whatever remains.
package signal

import (
	"context"

	"github.com/veridect/veridect/internal/media"
)

// Score is one adapter's normalized output for one request.
type Score struct {
	// Name identifies the signal (e.g. "metadata", "frame", "audio").
	Name string `json:"name"`

	// Value is the suspicion score in [0,1]. Ignored when Available is false.
	Value float64 `json:"value"`

	// WeightHint is the adapter's nominal weight suggestion. The fusion
	// engine uses configured weights; the hint is informational.
	WeightHint float64 `json:"weight_hint"`

	// Available reports whether the adapter produced a usable value. When
	// false the signal's weight is redistributed across the rest.
	Available bool `json:"available"`

	// Detail carries opaque per-signal diagnostics surfaced in the response.
	Detail map[string]any `json:"detail,omitempty"`

	// Segments are optional per-segment raw scores, the side output consumed
	// by the timeline aggregator. Not serialized into the signal details.
	Segments []Segment `json:"-"`
}

// Segment is a raw per-segment suspicion sample.
type Segment struct {
	// Timestamp is the segment position in seconds from the start of the
	// processed (possibly sampled) media.
	Timestamp float64

	// Value is the raw suspicion score in [0,1] for this segment.
	Value float64
}

// Unavailable builds a Score for a signal that produced no usable value.
func Unavailable(name, reason string) Score {
	return Score{
		Name:      name,
		Available: false,
		Detail:    map[string]any{"error": reason},
	}
}

// Clamp bounds v to [0,1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Adapter scores one aspect of resolved media.
//
// Implementations must respect ctx cancellation, must treat the media as
// read-only, and must not retain it past the call. They report internal
// failures through an unavailable Score rather than panicking; the runner
// still guards against both panics and overruns.
type Adapter interface {
	// Name returns the stable signal name used for weighting and ordering.
	Name() string

	// Score produces the signal's score for the given media.
	Score(ctx context.Context, m *media.Resolved) Score
}
