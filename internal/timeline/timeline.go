// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package timeline bins per-segment suspicion scores over the processed
// duration and reports peak regions. It reuses the fusion calibration so the
// per-segment view and the aggregate verdict share one scale, and the peak
// threshold is the decision mapper's own ai_min.
package timeline

import (
	"math"

	"github.com/veridect/veridect/internal/fusion"
	"github.com/veridect/veridect/internal/signal"
)

// Bin is one non-overlapping, left-closed/right-open window of the timeline.
// Read-only once produced.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`

	// Empty marks bins that received no samples. Empty bins carry the
	// neutral score 0.5 rather than an interpolated one: interpolation would
	// invent evidence where nothing was sampled.
	Empty bool `json:"empty,omitempty"`
}

// Aggregator bins segment scores with a fixed width and peak threshold.
type Aggregator struct {
	binWidth float64
	aiMin    float64
}

// New creates an aggregator. binWidth must be positive (enforced by config
// validation); aiMin comes from the decision thresholds.
func New(binWidth, aiMin float64) *Aggregator {
	return &Aggregator{binWidth: binWidth, aiMin: aiMin}
}

// Bin groups samples into windows of the configured width spanning the
// processed duration. Samples on a bin boundary belong to the right bin
// except the exact end of the span, which folds into the last bin. Each
// bin's score is the calibrated mean of its samples.
func (a *Aggregator) Bin(samples []signal.Segment, duration float64) []Bin {
	span := duration
	for _, s := range samples {
		if s.Timestamp > span {
			span = s.Timestamp
		}
	}
	if span <= 0 {
		return nil
	}

	n := int(math.Ceil(span / a.binWidth))
	if n < 1 {
		n = 1
	}

	sums := make([]float64, n)
	counts := make([]int, n)
	for _, s := range samples {
		if s.Timestamp < 0 {
			continue
		}
		idx := int(s.Timestamp / a.binWidth)
		if idx >= n {
			idx = n - 1
		}
		sums[idx] += signal.Clamp(s.Value)
		counts[idx]++
	}

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Start = float64(i) * a.binWidth
		bins[i].End = bins[i].Start + a.binWidth
		if i == n-1 && bins[i].End > span {
			bins[i].End = span
		}
		if counts[i] == 0 {
			bins[i].Empty = true
			bins[i].Score = 0.5
			continue
		}
		bins[i].Score = fusion.Calibrate(sums[i] / float64(counts[i]))
	}
	return bins
}

// Peaks returns the bins whose score exceeds the ai_min threshold. Empty
// bins never peak; their neutral score is a placeholder, not evidence.
func (a *Aggregator) Peaks(bins []Bin) []Bin {
	var peaks []Bin
	for _, b := range bins {
		if !b.Empty && b.Score > a.aiMin {
			peaks = append(peaks, b)
		}
	}
	return peaks
}
