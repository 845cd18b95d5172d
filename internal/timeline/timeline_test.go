// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package timeline

import (
	"math"
	"testing"

	"github.com/veridect/veridect/internal/fusion"
	"github.com/veridect/veridect/internal/signal"
)

func TestBinWindowsAreLeftClosedRightOpen(t *testing.T) {
	a := New(1.0, 0.72)
	samples := []signal.Segment{
		{Timestamp: 0.0, Value: 0.5},
		{Timestamp: 0.99, Value: 0.5},
		{Timestamp: 1.0, Value: 1.0}, // boundary sample belongs to the second bin
	}

	bins := a.Bin(samples, 2.0)
	if len(bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(bins))
	}
	if bins[0].Start != 0 || bins[0].End != 1 {
		t.Errorf("bins[0] window = [%g,%g), want [0,1)", bins[0].Start, bins[0].End)
	}
	if bins[0].Score != 0.5 {
		t.Errorf("bins[0].Score = %g, want 0.5 from the two first-second samples", bins[0].Score)
	}
	if bins[1].Score != fusion.Calibrate(1.0) {
		t.Errorf("bins[1].Score = %g, boundary sample should land in second bin", bins[1].Score)
	}
}

func TestBinEmptyBinsAreFlaggedNotInterpolated(t *testing.T) {
	a := New(1.0, 0.72)
	samples := []signal.Segment{
		{Timestamp: 0.5, Value: 0.9},
		{Timestamp: 2.5, Value: 0.9},
	}

	bins := a.Bin(samples, 3.0)
	if len(bins) != 3 {
		t.Fatalf("got %d bins, want 3", len(bins))
	}
	if !bins[1].Empty {
		t.Error("middle bin received no samples and must be flagged empty")
	}
	if bins[1].Score != 0.5 {
		t.Errorf("empty bin score = %g, want neutral 0.5", bins[1].Score)
	}
	if bins[0].Empty || bins[2].Empty {
		t.Error("sampled bins must not be flagged empty")
	}
}

func TestBinScoresAreCalibrated(t *testing.T) {
	a := New(1.0, 0.72)
	bins := a.Bin([]signal.Segment{{Timestamp: 0.2, Value: 0.8}}, 1.0)
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	if want := fusion.Calibrate(0.8); bins[0].Score != want {
		t.Errorf("score = %g, want calibrated %g", bins[0].Score, want)
	}
}

func TestBinSpanFollowsDuration(t *testing.T) {
	a := New(1.0, 0.72)
	bins := a.Bin([]signal.Segment{{Timestamp: 0.5, Value: 0.4}}, 4.5)
	if len(bins) != 5 {
		t.Fatalf("got %d bins for 4.5s duration, want 5", len(bins))
	}
	last := bins[len(bins)-1]
	if math.Abs(last.End-4.5) > 1e-9 {
		t.Errorf("last bin end = %g, want clipped to 4.5", last.End)
	}
}

func TestBinNoDurationNoSamples(t *testing.T) {
	a := New(1.0, 0.72)
	if bins := a.Bin(nil, 0); bins != nil {
		t.Errorf("expected no bins for empty input, got %v", bins)
	}
}

func TestPeaksUseAIMinThreshold(t *testing.T) {
	a := New(1.0, 0.72)
	bins := []Bin{
		{Start: 0, End: 1, Score: 0.95},
		{Start: 1, End: 2, Score: 0.72}, // exactly at threshold does not peak
		{Start: 2, End: 3, Score: 0.20},
		{Start: 3, End: 4, Score: 0.90, Empty: true}, // empty bins never peak
		{Start: 4, End: 5, Score: 0.80},
	}

	peaks := a.Peaks(bins)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2: %+v", len(peaks), peaks)
	}
	if peaks[0].Start != 0 || peaks[1].Start != 4 {
		t.Errorf("unexpected peak windows: %+v", peaks)
	}
}
