// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package signal

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/signal/probe"
)

type stubProber struct {
	summary    probe.Summary
	summaryErr error
	packets    map[string][]probe.Packet
	packetsErr error
}

func (s *stubProber) Inspect(_ context.Context, _ string) (probe.Summary, error) {
	return s.summary, s.summaryErr
}

func (s *stubProber) Packets(_ context.Context, _ string, stream string) ([]probe.Packet, error) {
	if s.packetsErr != nil {
		return nil, s.packetsErr
	}
	return s.packets[stream], nil
}

func testMedia() *media.Resolved {
	return &media.Resolved{Path: "/tmp/test.mp4"}
}

func TestMetadataAdapterCleanProvenance(t *testing.T) {
	p := &stubProber{summary: probe.Summary{
		HasVideo:     true,
		Width:        1920,
		Height:       1080,
		FPS:          30,
		BitRate:      8_000_000,
		Encoder:      "Lavf60.3.100",
		CreationTime: "2026-01-15T08:00:00Z",
	}}
	got := NewMetadataAdapter(p).Score(context.Background(), testMedia())

	if !got.Available {
		t.Fatalf("expected available score, got %+v", got)
	}
	if got.Value != 0.5 {
		t.Errorf("clean provenance should stay neutral, got %g", got.Value)
	}
	if got.Name != "metadata" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestMetadataAdapterStrippedTagsRaiseScore(t *testing.T) {
	p := &stubProber{summary: probe.Summary{
		HasVideo: true,
		Width:    512,
		Height:   512,
		FPS:      4, // non-physical
		BitRate:  500_000,
	}}
	got := NewMetadataAdapter(p).Score(context.Background(), testMedia())

	// 0.5 + 0.10 (no encoder) + 0.05 (no creation) + 0.10 (weird fps)
	if math.Abs(got.Value-0.75) > 1e-9 {
		t.Errorf("Value = %g, want 0.75", got.Value)
	}
	if weird, _ := got.Detail["fps_weird"].(bool); !weird {
		t.Error("fps_weird should be set for 4 fps")
	}
}

func TestMetadataAdapterProbeFailure(t *testing.T) {
	p := &stubProber{summaryErr: errors.New("ffprobe exploded")}
	got := NewMetadataAdapter(p).Score(context.Background(), testMedia())
	if got.Available {
		t.Fatal("probe failure must yield unavailable signal")
	}
}

func TestCompressionIndexThresholds(t *testing.T) {
	base := probe.Summary{HasVideo: true, Width: 1920, Height: 1080, FPS: 30}
	mp := 1920.0 * 1080.0 / 1e6

	cases := []struct {
		name    string
		bitrate int64
		want    float64
	}{
		{"heavy", int64(10000 * 30 * mp), 0.85},
		{"low", int64(30000 * 30 * mp), 0.65},
		{"medium", int64(60000 * 30 * mp), 0.35},
		{"light", int64(120000 * 30 * mp), 0.15},
	}
	for _, tc := range cases {
		s := base
		s.BitRate = tc.bitrate
		if got, _ := compressionIndex(s); got != tc.want {
			t.Errorf("%s: compressionIndex = %g, want %g", tc.name, got, tc.want)
		}
	}
}

func TestCompressionIndexUnknownIsNeutral(t *testing.T) {
	if got, _ := compressionIndex(probe.Summary{HasVideo: true}); got != 0.5 {
		t.Errorf("missing dimensions should be neutral 0.5, got %g", got)
	}
}

func TestCompressionIndexLowFPSFloor(t *testing.T) {
	s := probe.Summary{HasVideo: true, Width: 1920, Height: 1080, FPS: 12, BitRate: 200_000_000}
	got, _ := compressionIndex(s)
	if got < 0.65 {
		t.Errorf("low fps must floor the index at 0.65, got %g", got)
	}
}

func TestFrameAdapterDuplicateHeavyStream(t *testing.T) {
	// One real keyframe-sized packet per second drowned in near-empty
	// delta packets, the profile of interpolated/duplicated frames.
	var pkts []probe.Packet
	for sec := 0; sec < 3; sec++ {
		pkts = append(pkts, probe.Packet{PTS: float64(sec), Size: 40000})
		for i := 1; i < 10; i++ {
			pkts = append(pkts, probe.Packet{PTS: float64(sec) + float64(i)*0.1, Size: 60})
		}
	}
	p := &stubProber{packets: map[string][]probe.Packet{"v:0": pkts}}
	got := NewFrameAdapter(p).Score(context.Background(), testMedia())

	if !got.Available {
		t.Fatalf("expected available score, got %+v", got)
	}
	if got.Value <= 0.6 {
		t.Errorf("duplicate-heavy stream should score high, got %g", got.Value)
	}
	if len(got.Segments) != 3 {
		t.Errorf("got %d segments, want 3", len(got.Segments))
	}
	for i, seg := range got.Segments {
		if seg.Timestamp != float64(i) {
			t.Errorf("segment %d timestamp = %g", i, seg.Timestamp)
		}
	}
}

func TestFrameAdapterVariedStreamScoresLower(t *testing.T) {
	varied := []probe.Packet{
		{PTS: 0.0, Size: 42000}, {PTS: 0.2, Size: 9000}, {PTS: 0.4, Size: 15000},
		{PTS: 0.6, Size: 31000}, {PTS: 0.8, Size: 6000},
		{PTS: 1.0, Size: 38000}, {PTS: 1.3, Size: 12000}, {PTS: 1.6, Size: 27000},
	}
	flat := []probe.Packet{
		{PTS: 0.0, Size: 10000}, {PTS: 0.2, Size: 10000}, {PTS: 0.4, Size: 10000},
		{PTS: 0.6, Size: 10000}, {PTS: 0.8, Size: 10000},
	}

	variedScore := NewFrameAdapter(&stubProber{packets: map[string][]probe.Packet{"v:0": varied}}).
		Score(context.Background(), testMedia())
	flatScore := NewFrameAdapter(&stubProber{packets: map[string][]probe.Packet{"v:0": flat}}).
		Score(context.Background(), testMedia())

	if variedScore.Value >= flatScore.Value {
		t.Errorf("varied packet sizes (%g) should score below flat sizes (%g)",
			variedScore.Value, flatScore.Value)
	}
}

func TestFrameAdapterNoPackets(t *testing.T) {
	p := &stubProber{packets: map[string][]probe.Packet{}}
	if got := NewFrameAdapter(p).Score(context.Background(), testMedia()); got.Available {
		t.Fatal("empty packet list must yield unavailable signal")
	}
}

func TestAudioAdapterMissingTrack(t *testing.T) {
	p := &stubProber{summary: probe.Summary{HasVideo: true}}
	got := NewAudioAdapter(p).Score(context.Background(), testMedia())

	if !got.Available {
		t.Fatalf("missing track is a valid (weak) signal, got %+v", got)
	}
	if got.Value != 0.55 {
		t.Errorf("Value = %g, want 0.55 for missing audio", got.Value)
	}
}

func TestAudioAdapterFlatBitrateSuspicious(t *testing.T) {
	flat := make([]probe.Packet, 0, 50)
	natural := make([]probe.Packet, 0, 50)
	for sec := 0; sec < 10; sec++ {
		for i := 0; i < 5; i++ {
			pts := float64(sec) + float64(i)*0.2
			flat = append(flat, probe.Packet{PTS: pts, Size: 400})
			natural = append(natural, probe.Packet{PTS: pts, Size: int64(200 + 150*((sec+i)%4))})
		}
	}
	summary := probe.Summary{HasAudio: true, AudioCodec: "aac"}

	flatScore := NewAudioAdapter(&stubProber{summary: summary, packets: map[string][]probe.Packet{"a:0": flat}}).
		Score(context.Background(), testMedia())
	naturalScore := NewAudioAdapter(&stubProber{summary: summary, packets: map[string][]probe.Packet{"a:0": natural}}).
		Score(context.Background(), testMedia())

	if flatScore.Value <= naturalScore.Value {
		t.Errorf("flat bitrate (%g) should score above natural variation (%g)",
			flatScore.Value, naturalScore.Value)
	}
	if math.Abs(flatScore.Value-0.65) > 1e-9 {
		t.Errorf("perfectly flat profile = %g, want 0.40+0.25", flatScore.Value)
	}
	if len(flatScore.Segments) == 0 {
		t.Error("audio score should carry timeline segments")
	}
}

func TestAudioAdapterPacketFailure(t *testing.T) {
	p := &stubProber{
		summary:    probe.Summary{HasAudio: true},
		packetsErr: errors.New("stream unreadable"),
	}
	if got := NewAudioAdapter(p).Score(context.Background(), testMedia()); got.Available {
		t.Fatal("packet failure must yield unavailable signal")
	}
}
