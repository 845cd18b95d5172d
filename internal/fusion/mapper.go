// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package fusion

import (
	"fmt"
	"strings"
)

// Label is the categorical verdict.
type Label string

const (
	LabelLikelyAI       Label = "LikelyAI"
	LabelLikelyOriginal Label = "LikelyOriginal"
	LabelInconclusive   Label = "Inconclusive"
)

// Verdict pairs a label with a short human-readable reason. Derived
// deterministically from a Result.
type Verdict struct {
	Label  Label  `json:"label"`
	Reason string `json:"reason"`
}

// Thresholds configure the decision mapping. The config package enforces
// RealMax < AIMin at startup.
type Thresholds struct {
	// RealMax: plausibility strictly below it maps to LikelyOriginal.
	RealMax float64

	// AIMin: plausibility strictly above it maps to LikelyAI.
	AIMin float64
}

// Mapper converts fused results into verdicts.
type Mapper struct {
	t Thresholds
}

// NewMapper creates a decision mapper.
func NewMapper(t Thresholds) *Mapper {
	return &Mapper{t: t}
}

// AIMin exposes the upper threshold; the timeline aggregator reuses it for
// peak detection so per-segment peaks and the aggregate verdict share one
// notion of "suspicious".
func (m *Mapper) AIMin() float64 {
	return m.t.AIMin
}

// Decide maps a fused result to a verdict. Plausibility exactly equal to
// either threshold resolves to Inconclusive, the stricter non-committal
// side; boundary behavior is deliberate and covered by tests.
func (m *Mapper) Decide(res Result) Verdict {
	if res.Undefined {
		return Verdict{
			Label:  LabelInconclusive,
			Reason: "no signals available; unable to assess the media",
		}
	}

	p := res.Plausibility
	switch {
	case p > m.t.AIMin:
		return Verdict{
			Label:  LabelLikelyAI,
			Reason: m.reason(res, fmt.Sprintf("plausibility %.2f above the synthetic threshold %.2f", p, m.t.AIMin)),
		}
	case p < m.t.RealMax:
		return Verdict{
			Label:  LabelLikelyOriginal,
			Reason: m.reason(res, fmt.Sprintf("plausibility %.2f below the original threshold %.2f", p, m.t.RealMax)),
		}
	default:
		return Verdict{
			Label:  LabelInconclusive,
			Reason: m.reason(res, fmt.Sprintf("plausibility %.2f between thresholds", p)),
		}
	}
}

// reason appends the availability summary to the threshold explanation.
func (m *Mapper) reason(res Result, head string) string {
	var available, missing []string
	for _, s := range res.Contributing {
		if s.Available {
			available = append(available, s.Name)
		} else {
			missing = append(missing, s.Name)
		}
	}

	parts := []string{head}
	if len(missing) == 0 {
		parts = append(parts, fmt.Sprintf("all %d signals available", len(available)))
	} else {
		parts = append(parts, fmt.Sprintf("signals unavailable: %s", strings.Join(missing, ", ")))
	}
	return strings.Join(parts, "; ")
}
