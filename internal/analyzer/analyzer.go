// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package analyzer orchestrates one scoring request end to end: resolve the
// media, run the signal adapters in parallel, fuse, decide, bin the
// timeline, and always release the spooled bytes on the way out.
package analyzer

import (
	"context"
	"io"
	"strings"

	"github.com/veridect/veridect/internal/fusion"
	"github.com/veridect/veridect/internal/logging"
	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/metrics"
	"github.com/veridect/veridect/internal/signal"
	"github.com/veridect/veridect/internal/timeline"
)

// Resolver is the slice of the resolver API the analyzer consumes.
type Resolver interface {
	Resolve(ctx context.Context, ref media.Reference) (*media.Resolved, error)
	ResolveUpload(ctx context.Context, body io.Reader, ref media.Reference) (*media.Resolved, error)
}

// SignalDetail is the per-signal block of the report.
type SignalDetail struct {
	// Value is nil when the signal was unavailable.
	Value     *float64       `json:"value"`
	Available bool           `json:"available"`
	Weight    float64        `json:"weight"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Report is the full analysis outcome for one request.
type Report struct {
	// AIScore is nil when zero signals were available.
	AIScore    *float64                `json:"ai_score"`
	Confidence float64                 `json:"confidence"`
	Label      fusion.Label            `json:"label"`
	Reason     string                  `json:"reason"`
	Details    map[string]SignalDetail `json:"details"`
	Timeline   []timeline.Bin          `json:"timeline"`
	Peaks      []timeline.Bin          `json:"peaks,omitempty"`
	Sampled    bool                    `json:"sampled,omitempty"`
}

// Service wires the pipeline components behind the two analyze entrypoints.
type Service struct {
	resolver Resolver
	runner   *signal.Runner
	engine   *fusion.Engine
	mapper   *fusion.Mapper
	prober   signal.Prober
	bins     *timeline.Aggregator
	weights  map[string]float64
}

// New builds the analysis service.
func New(res Resolver, runner *signal.Runner, engine *fusion.Engine,
	mapper *fusion.Mapper, prober signal.Prober, bins *timeline.Aggregator,
	weights map[string]float64) *Service {
	w := make(map[string]float64, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	return &Service{
		resolver: res,
		runner:   runner,
		engine:   engine,
		mapper:   mapper,
		prober:   prober,
		bins:     bins,
		weights:  w,
	}
}

// AnalyzeURL resolves a remote reference and scores it.
func (s *Service) AnalyzeURL(ctx context.Context, url string) (*Report, error) {
	resolved, err := s.resolver.Resolve(ctx, media.NewURLReference(url))
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, resolved), nil
}

// AnalyzeUpload spools an uploaded body and scores it.
func (s *Service) AnalyzeUpload(ctx context.Context, body io.Reader, ref media.Reference) (*Report, error) {
	resolved, err := s.resolver.ResolveUpload(ctx, body, ref)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, resolved), nil
}

// analyze runs the scoring pipeline over resolved media. The spool file is
// released on every path; adapter failures degrade the result instead of
// failing the request.
func (s *Service) analyze(ctx context.Context, resolved *media.Resolved) *Report {
	defer func() {
		if err := resolved.Release(); err != nil {
			logging.Warn().Err(err).Str("path", resolved.Path).Msg("media release failed")
		}
	}()

	if sum, err := s.prober.Inspect(ctx, resolved.Path); err == nil {
		resolved.DurationSeconds = sum.DurationSeconds
	}

	scores := s.runner.Run(ctx, resolved)
	result := s.engine.Fuse(scores)
	verdict := s.mapper.Decide(result)
	metrics.FusionVerdicts.WithLabelValues(string(verdict.Label)).Inc()

	confidence := result.Confidence
	compIdx, hasComp := compressionIndex(result.Contributing)
	if hasComp {
		// Heavy re-encoding erases exactly the artifacts the signals look
		// for; dampen confidence in proportion.
		confidence = clamp(confidence - 0.10*compIdx)
	}
	if resolved.Sampled {
		confidence = clamp(confidence - 0.05)
	}

	bins := s.bins.Bin(collectSegments(result.Contributing), resolved.DurationSeconds)

	report := &Report{
		Confidence: confidence,
		Label:      verdict.Label,
		Reason:     s.reason(verdict, result.Contributing, resolved.Sampled),
		Details:    buildDetails(result.Contributing, s.weights),
		Timeline:   bins,
		Peaks:      s.bins.Peaks(bins),
		Sampled:    resolved.Sampled,
	}
	if !result.Undefined {
		v := result.Plausibility
		report.AIScore = &v
	}

	logging.Info().
		Str("label", string(verdict.Label)).
		Float64("confidence", confidence).
		Bool("sampled", resolved.Sampled).
		Int("timeline_bins", len(bins)).
		Msg("analysis complete")
	return report
}

// reason extends the verdict reason with the concrete heuristics the
// adapters flagged.
func (s *Service) reason(verdict fusion.Verdict, scores []signal.Score, sampled bool) string {
	parts := []string{verdict.Reason}
	for _, sc := range scores {
		if !sc.Available {
			continue
		}
		for _, note := range detailNotes(sc.Detail) {
			parts = append(parts, sc.Name+": "+note)
		}
	}
	if sampled {
		parts = append(parts, "scored from a bounded sample window")
	}
	return strings.Join(parts, "; ")
}

func buildDetails(scores []signal.Score, weights map[string]float64) map[string]SignalDetail {
	details := make(map[string]SignalDetail, len(scores))
	for _, sc := range scores {
		d := SignalDetail{
			Available: sc.Available,
			Weight:    weights[sc.Name],
			Detail:    sc.Detail,
		}
		if sc.Available {
			v := sc.Value
			d.Value = &v
		}
		details[sc.Name] = d
	}
	return details
}

// collectSegments merges the per-segment side outputs of every available
// signal into one sample stream for the timeline.
func collectSegments(scores []signal.Score) []signal.Segment {
	var segments []signal.Segment
	for _, sc := range scores {
		if sc.Available {
			segments = append(segments, sc.Segments...)
		}
	}
	return segments
}

// compressionIndex pulls the metadata signal's compression estimate.
func compressionIndex(scores []signal.Score) (float64, bool) {
	for _, sc := range scores {
		if sc.Name != "metadata" || !sc.Available || sc.Detail == nil {
			continue
		}
		if idx, ok := sc.Detail["compression_index"].(float64); ok {
			return idx, true
		}
	}
	return 0, false
}

func detailNotes(detail map[string]any) []string {
	if detail == nil {
		return nil
	}
	notes, ok := detail["notes"].([]string)
	if !ok {
		return nil
	}
	return notes
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
