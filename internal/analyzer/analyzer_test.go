// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package analyzer

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/veridect/veridect/internal/fusion"
	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/signal"
	"github.com/veridect/veridect/internal/signal/probe"
	"github.com/veridect/veridect/internal/timeline"
)

func timelineAggregator() *timeline.Aggregator {
	return timeline.New(1.0, 0.72)
}

var (
	testOrder   = []string{"metadata", "frame", "audio"}
	testWeights = map[string]float64{"metadata": 0.30, "frame": 0.45, "audio": 0.25}
)

type stubResolver struct {
	resolved *media.Resolved
	err      error
}

func (s *stubResolver) Resolve(context.Context, media.Reference) (*media.Resolved, error) {
	return s.resolved, s.err
}

func (s *stubResolver) ResolveUpload(context.Context, io.Reader, media.Reference) (*media.Resolved, error) {
	return s.resolved, s.err
}

type stubProber struct {
	duration float64
}

func (s *stubProber) Inspect(context.Context, string) (probe.Summary, error) {
	return probe.Summary{DurationSeconds: s.duration}, nil
}

func (s *stubProber) Packets(context.Context, string, string) ([]probe.Packet, error) {
	return nil, errors.New("not used")
}

type staticAdapter struct {
	score signal.Score
}

func (a staticAdapter) Name() string { return a.score.Name }

func (a staticAdapter) Score(context.Context, *media.Resolved) signal.Score { return a.score }

func spooledMedia(t *testing.T) *media.Resolved {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("media bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	return &media.Resolved{Path: path, ByteCount: 11, ContentType: "video/mp4"}
}

func newService(resolved *media.Resolved, prober signal.Prober, scores ...signal.Score) *Service {
	adapters := make([]signal.Adapter, len(scores))
	for i, sc := range scores {
		adapters[i] = staticAdapter{score: sc}
	}
	runner := signal.NewRunner(testOrder, time.Second, adapters...)
	engine := fusion.NewEngine(fusion.Config{Order: testOrder, Weights: testWeights})
	mapper := fusion.NewMapper(fusion.Thresholds{RealMax: 0.35, AIMin: 0.72})
	bins := timelineAggregator()
	return New(&stubResolver{resolved: resolved}, runner, engine, mapper, prober, bins, testWeights)
}

func available(name string, value float64, segments ...signal.Segment) signal.Score {
	return signal.Score{Name: name, Value: value, Available: true, Segments: segments}
}

func TestAnalyzeURLFullPipeline(t *testing.T) {
	resolved := spooledMedia(t)
	svc := newService(resolved, &stubProber{duration: 3},
		available("metadata", 0.5),
		available("frame", 0.9,
			signal.Segment{Timestamp: 0.5, Value: 0.9},
			signal.Segment{Timestamp: 2.5, Value: 0.9}),
		available("audio", 0.6),
	)

	report, err := svc.AnalyzeURL(context.Background(), "https://cdn.example.com/clip.mp4")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if report.AIScore == nil {
		t.Fatal("ai_score must be set when signals are available")
	}
	raw := (0.30*0.5 + 0.45*0.9 + 0.25*0.6) / 1.0
	if want := fusion.Calibrate(raw); math.Abs(*report.AIScore-want) > 1e-12 {
		t.Errorf("ai_score = %g, want %g", *report.AIScore, want)
	}
	if len(report.Details) != 3 {
		t.Errorf("got %d detail entries, want 3", len(report.Details))
	}
	if d := report.Details["frame"]; !d.Available || d.Weight != 0.45 || d.Value == nil {
		t.Errorf("frame detail = %+v", d)
	}
	if len(report.Timeline) != 3 {
		t.Errorf("got %d timeline bins for 3s media, want 3", len(report.Timeline))
	}
	if report.Timeline[1].Empty != true {
		t.Error("middle second received no samples, bin should be empty")
	}
	if !resolved.Released() {
		t.Error("media must be released after analysis")
	}
}

func TestAnalyzeDegradedToNoSignals(t *testing.T) {
	resolved := spooledMedia(t)
	svc := newService(resolved, &stubProber{duration: 2},
		signal.Unavailable("metadata", "probe failed"),
		signal.Unavailable("frame", "probe failed"),
		signal.Unavailable("audio", "probe failed"),
	)

	report, err := svc.AnalyzeURL(context.Background(), "https://cdn.example.com/clip.mp4")
	if err != nil {
		t.Fatalf("degraded pipeline must not error: %v", err)
	}
	if report.AIScore != nil {
		t.Errorf("ai_score = %v, want null with zero signals", *report.AIScore)
	}
	if report.Label != fusion.LabelInconclusive {
		t.Errorf("label = %q, want Inconclusive", report.Label)
	}
	if report.Confidence != 0 {
		t.Errorf("confidence = %g, want 0", report.Confidence)
	}
	if !resolved.Released() {
		t.Error("media must be released on the degraded path too")
	}
}

func TestAnalyzeCompressionPenalty(t *testing.T) {
	plain := available("frame", 0.6)

	withComp := available("metadata", 0.5)
	withComp.Detail = map[string]any{"compression_index": 0.8}
	withoutComp := available("metadata", 0.5)

	r1 := spooledMedia(t)
	r2 := spooledMedia(t)
	svcComp := newService(r1, &stubProber{}, withComp, plain, available("audio", 0.5))
	svcPlain := newService(r2, &stubProber{}, withoutComp, plain, available("audio", 0.5))

	repComp, err := svcComp.AnalyzeURL(context.Background(), "https://x.example/v.mp4")
	if err != nil {
		t.Fatal(err)
	}
	repPlain, err := svcPlain.AnalyzeURL(context.Background(), "https://x.example/v.mp4")
	if err != nil {
		t.Fatal(err)
	}

	if want := repPlain.Confidence - 0.08; math.Abs(repComp.Confidence-want) > 1e-9 {
		t.Errorf("confidence with compression = %g, want %g (0.10 x 0.8 below %g)",
			repComp.Confidence, want, repPlain.Confidence)
	}
}

func TestAnalyzeSampledMedia(t *testing.T) {
	resolved := spooledMedia(t)
	resolved.Sampled = true
	resolved.SampleWindowSeconds = 8

	svc := newService(resolved, &stubProber{duration: 8},
		available("metadata", 0.5), available("frame", 0.5), available("audio", 0.5))

	report, err := svc.AnalyzeURL(context.Background(), "https://cdn.example.com/live.m3u8")
	if err != nil {
		t.Fatal(err)
	}
	if !report.Sampled {
		t.Error("report must carry the sampled flag")
	}
	if !strings.Contains(report.Reason, "sample window") {
		t.Errorf("reason should mention sampling: %q", report.Reason)
	}
}

func TestAnalyzeReasonIncludesAdapterNotes(t *testing.T) {
	noted := available("metadata", 0.7)
	noted.Detail = map[string]any{"notes": []string{"no encoder tag"}}

	resolved := spooledMedia(t)
	svc := newService(resolved, &stubProber{}, noted,
		available("frame", 0.5), available("audio", 0.5))

	report, err := svc.AnalyzeURL(context.Background(), "https://cdn.example.com/clip.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report.Reason, "metadata: no encoder tag") {
		t.Errorf("reason should carry adapter notes: %q", report.Reason)
	}
}

func TestAnalyzeResolverErrorPropagates(t *testing.T) {
	svc := New(&stubResolver{err: errors.New("forbidden")},
		signal.NewRunner(testOrder, time.Second),
		fusion.NewEngine(fusion.Config{Order: testOrder, Weights: testWeights}),
		fusion.NewMapper(fusion.Thresholds{RealMax: 0.35, AIMin: 0.72}),
		&stubProber{}, timelineAggregator(), testWeights)

	if _, err := svc.AnalyzeURL(context.Background(), "https://blocked.example/v.mp4"); err == nil {
		t.Fatal("resolver error must propagate")
	}
}
