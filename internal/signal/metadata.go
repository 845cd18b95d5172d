// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package signal

import (
	"context"

	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/signal/probe"
)

// Prober is the slice of the probe API the adapters consume.
type Prober interface {
	Inspect(ctx context.Context, path string) (probe.Summary, error)
	Packets(ctx context.Context, path, stream string) ([]probe.Packet, error)
}

// MetadataAdapter scores container-level oddities: stripped provenance tags,
// non-physical frame rates and re-encode-grade compression.
type MetadataAdapter struct {
	prober Prober
}

// NewMetadataAdapter returns the metadata signal backed by the given prober.
func NewMetadataAdapter(p Prober) *MetadataAdapter {
	return &MetadataAdapter{prober: p}
}

// Name implements Adapter.
func (a *MetadataAdapter) Name() string { return "metadata" }

// Score implements Adapter.
func (a *MetadataAdapter) Score(ctx context.Context, m *media.Resolved) Score {
	sum, err := a.prober.Inspect(ctx, m.Path)
	if err != nil {
		return Unavailable(a.Name(), err.Error())
	}

	hasEncoder := sum.Encoder != ""
	hasCreation := sum.CreationTime != ""
	fpsWeird := sum.HasVideo && (sum.FPS >= 120.0 || sum.FPS <= 5.0)

	// Neutral baseline; absent real-world provenance and odd frame rates
	// push toward synthetic.
	value := 0.5
	var notes []string
	if !hasEncoder {
		value += 0.10
		notes = append(notes, "no encoder tag")
	}
	if !hasCreation {
		value += 0.05
		notes = append(notes, "no creation timestamp")
	}
	if fpsWeird {
		value += 0.10
		notes = append(notes, "non-physical frame rate")
	}

	comp, compNotes := compressionIndex(sum)
	notes = append(notes, compNotes...)

	return Score{
		Name:       a.Name(),
		Value:      Clamp(value),
		WeightHint: 0.30,
		Available:  true,
		Detail: map[string]any{
			"summary":           sum,
			"has_encoder":       hasEncoder,
			"has_creation_time": hasCreation,
			"fps_weird":         fpsWeird,
			"compression_index": comp,
			"notes":             notes,
		},
	}
}

// compressionIndex estimates how aggressively the video was compressed, on
// [0,1] where values above 0.6 mean messenger-grade re-encoding. Heavily
// compressed media erases the artifacts the other signals look for, so the
// index feeds the confidence penalty rather than the score itself.
func compressionIndex(sum probe.Summary) (float64, []string) {
	if !sum.HasVideo || sum.Width == 0 || sum.Height == 0 || sum.BitRate == 0 {
		return 0.5, nil
	}

	fps := sum.FPS
	if fps < 1 {
		fps = 1
	}
	megapixels := float64(sum.Width) * float64(sum.Height) / 1e6
	if megapixels < 0.1 {
		megapixels = 0.1
	}
	perFrame := float64(sum.BitRate) / fps / megapixels

	var idx float64
	switch {
	case perFrame < 20000:
		idx = 0.85
	case perFrame < 40000:
		idx = 0.65
	case perFrame < 80000:
		idx = 0.35
	default:
		idx = 0.15
	}

	var notes []string
	if sum.FPS > 0 && sum.FPS < 18.0 {
		if idx < 0.65 {
			idx = 0.65
		}
		notes = append(notes, "low frame rate")
	}
	switch {
	case idx >= 0.75:
		notes = append(notes, "heavy compression")
	case idx >= 0.5:
		notes = append(notes, "moderate compression")
	}
	return idx, notes
}
