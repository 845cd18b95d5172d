// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package signal

import (
	"context"
	"math"

	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/signal/probe"
)

// AudioAdapter scores the audio track. A missing track is itself weak
// evidence toward generation (most generators render silent clips), and a
// near-constant per-second byte rate matches the flat tts-like profile of
// synthesized speech.
type AudioAdapter struct {
	prober Prober
}

// NewAudioAdapter returns the audio signal backed by the given prober.
func NewAudioAdapter(p Prober) *AudioAdapter {
	return &AudioAdapter{prober: p}
}

// Name implements Adapter.
func (a *AudioAdapter) Name() string { return "audio" }

// Score implements Adapter.
func (a *AudioAdapter) Score(ctx context.Context, m *media.Resolved) Score {
	sum, err := a.prober.Inspect(ctx, m.Path)
	if err != nil {
		return Unavailable(a.Name(), err.Error())
	}

	if !sum.HasAudio {
		return Score{
			Name:       a.Name(),
			Value:      0.55,
			WeightHint: 0.25,
			Available:  true,
			Detail: map[string]any{
				"has_audio": false,
				"notes":     []string{"no audio stream"},
			},
		}
	}

	packets, err := a.prober.Packets(ctx, m.Path, "a:0")
	if err != nil {
		return Unavailable(a.Name(), err.Error())
	}
	if len(packets) == 0 {
		return Unavailable(a.Name(), "no audio packets")
	}

	cv := byteRateVariation(packets)
	// Natural speech and ambience vary second to second; a coefficient of
	// variation near zero points at a fixed-rate synthesized track.
	constancy := 1.0 - math.Min(1.0, cv/0.10)
	value := Clamp(0.40 + 0.25*constancy)

	var notes []string
	if constancy >= 0.8 {
		notes = append(notes, "flat tts-like bitrate profile")
	}

	score := Score{
		Name:       a.Name(),
		Value:      value,
		WeightHint: 0.25,
		Available:  true,
		Detail: map[string]any{
			"has_audio":         true,
			"codec":             sum.AudioCodec,
			"byte_rate_cv":      cv,
			"bitrate_constancy": constancy,
			"notes":             notes,
		},
	}

	// Audio heuristics have no per-second discrimination yet; the flat
	// segment track still lets the timeline weigh audio evidence per bin.
	seconds := int(packets[len(packets)-1].PTS) + 1
	for sec := 0; sec < seconds; sec++ {
		score.Segments = append(score.Segments, Segment{
			Timestamp: float64(sec),
			Value:     value,
		})
	}
	return score
}

// byteRateVariation is the coefficient of variation of per-second audio
// byte totals.
func byteRateVariation(packets []probe.Packet) float64 {
	perSec := map[int]float64{}
	for _, p := range packets {
		sec := int(p.PTS)
		if sec < 0 {
			sec = 0
		}
		perSec[sec] += float64(p.Size)
	}
	if len(perSec) < 2 {
		return 0
	}

	var sum float64
	for _, b := range perSec {
		sum += b
	}
	mean := sum / float64(len(perSec))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, b := range perSec {
		d := b - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(perSec))) / mean
}
