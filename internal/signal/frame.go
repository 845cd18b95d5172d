// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package signal

import (
	"context"
	"math"
	"sort"

	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/signal/probe"
)

// FrameAdapter scores per-frame artifacts from the demuxed video packet
// stream. Generated and frame-interpolated footage tends toward long runs of
// near-empty delta packets (duplicated frames) and an unnaturally flat packet
// size distribution; both are visible without decoding a single frame.
type FrameAdapter struct {
	prober Prober
}

// NewFrameAdapter returns the frame-artifact signal backed by the given prober.
func NewFrameAdapter(p Prober) *FrameAdapter {
	return &FrameAdapter{prober: p}
}

// Name implements Adapter.
func (a *FrameAdapter) Name() string { return "frame" }

// Score implements Adapter.
func (a *FrameAdapter) Score(ctx context.Context, m *media.Resolved) Score {
	packets, err := a.prober.Packets(ctx, m.Path, "v:0")
	if err != nil {
		return Unavailable(a.Name(), err.Error())
	}
	if len(packets) == 0 {
		return Unavailable(a.Name(), "no video packets")
	}

	ref := meanSize(packets)
	segments := binPackets(packets, ref)

	var total float64
	for _, seg := range segments {
		total += seg.Value
	}
	value := total / float64(len(segments))
	dup := duplicateRatio(packets, ref)

	var notes []string
	switch {
	case dup >= 0.5:
		notes = append(notes, "high duplicate-frame ratio")
	case dup >= 0.25:
		notes = append(notes, "moderate duplicate-frame ratio")
	}

	return Score{
		Name:       a.Name(),
		Value:      Clamp(value),
		WeightHint: 0.45,
		Available:  true,
		Detail: map[string]any{
			"packet_count":     len(packets),
			"mean_packet_size": ref,
			"duplicate_ratio":  dup,
			"seconds_scored":   len(segments),
			"notes":            notes,
		},
		Segments: segments,
	}
}

// binPackets groups packets into one-second windows and scores each window
// from its duplicate ratio and packet-size spread.
func binPackets(packets []probe.Packet, ref float64) []Segment {
	bins := map[int][]probe.Packet{}
	for _, p := range packets {
		sec := int(p.PTS)
		if sec < 0 {
			sec = 0
		}
		bins[sec] = append(bins[sec], p)
	}

	seconds := make([]int, 0, len(bins))
	for sec := range bins {
		seconds = append(seconds, sec)
	}
	sort.Ints(seconds)

	segments := make([]Segment, 0, len(seconds))
	for _, sec := range seconds {
		group := bins[sec]
		dup := duplicateRatio(group, ref)
		cv := sizeVariation(group)

		// Flat packet sizes read as synthetic smoothness; cap the
		// flatness contribution so noisy one-packet seconds stay neutral.
		flat := 1.0 - math.Min(1.0, cv/0.6)
		value := 0.30 + 0.45*dup + 0.25*flat
		segments = append(segments, Segment{
			Timestamp: float64(sec),
			Value:     Clamp(value),
		})
	}
	return segments
}

// duplicateRatio is the fraction of packets small enough to be repeated or
// near-empty delta frames, relative to the stream's mean packet size. The
// mean is the reference on purpose: when duplicates dominate the stream the
// median collapses onto the duplicate size and stops separating them.
func duplicateRatio(packets []probe.Packet, ref float64) float64 {
	if len(packets) == 0 || ref <= 0 {
		return 0
	}
	tiny := 0
	for _, p := range packets {
		if float64(p.Size) < ref/4 {
			tiny++
		}
	}
	return float64(tiny) / float64(len(packets))
}

// sizeVariation is the coefficient of variation of packet sizes.
func sizeVariation(packets []probe.Packet) float64 {
	if len(packets) < 2 {
		return 0
	}
	var sum float64
	for _, p := range packets {
		sum += float64(p.Size)
	}
	mean := sum / float64(len(packets))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, p := range packets {
		d := float64(p.Size) - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(packets))) / mean
}

func meanSize(packets []probe.Packet) float64 {
	if len(packets) == 0 {
		return 0
	}
	var sum float64
	for _, p := range packets {
		sum += float64(p.Size)
	}
	return sum / float64(len(packets))
}
