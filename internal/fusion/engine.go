// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package fusion combines independently-produced signal scores into one
// calibrated plausibility with an attached confidence, and maps the pair to
// a categorical verdict.
//
// Fusion is a pure function of its inputs and configuration: identical
// (signals, config) always yields bit-identical results. That property is
// load-bearing for tests and debugging, so the engine holds no state beyond
// its immutable configuration.
package fusion

import (
	"math"

	"github.com/veridect/veridect/internal/signal"
)

// Config fixes the signal order and nominal weights for an Engine.
// It is validated at startup by the config package; the engine assumes
// non-negative weights with a positive sum.
type Config struct {
	// Order is the fixed signal evaluation order. The Contributing list of
	// every result follows this order exactly.
	Order []string

	// Weights maps signal name to nominal weight. When a signal is
	// unavailable its weight is redistributed proportionally across the
	// remaining available signals.
	Weights map[string]float64
}

// Result is the fused outcome for one request. Never mutated after
// construction.
type Result struct {
	// Plausibility is the calibrated score in [0,1]. Meaningless when
	// Undefined is true.
	Plausibility float64 `json:"plausibility"`

	// Confidence in [0,1] reflects how much available evidence supports the
	// plausibility: more available signals and closer agreement raise it.
	Confidence float64 `json:"confidence"`

	// Undefined is true when zero signals were available.
	Undefined bool `json:"undefined,omitempty"`

	// Contributing lists every configured signal in config order, including
	// unavailable ones.
	Contributing []signal.Score `json:"contributing"`
}

// Engine fuses signal scores under a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates a fusion engine. The config is copied; later mutation of
// the caller's maps does not affect the engine.
func NewEngine(cfg Config) *Engine {
	weights := make(map[string]float64, len(cfg.Weights))
	for k, v := range cfg.Weights {
		weights[k] = v
	}
	order := make([]string, len(cfg.Order))
	copy(order, cfg.Order)
	return &Engine{cfg: Config{Order: order, Weights: weights}}
}

// Fuse combines the given scores into a single calibrated result.
//
// Scores are consumed in the engine's configured name order regardless of
// input order. Unavailable signals contribute no value; their weight is
// redistributed proportionally so weights among available signals sum to 1.
// Zero available signals yield an Undefined result with confidence 0.
func (e *Engine) Fuse(scores []signal.Score) Result {
	byName := make(map[string]signal.Score, len(scores))
	for _, s := range scores {
		byName[s.Name] = s
	}

	contributing := make([]signal.Score, 0, len(e.cfg.Order))
	var weightSum, weighted float64
	var values []float64

	for _, name := range e.cfg.Order {
		s, ok := byName[name]
		if !ok {
			s = signal.Unavailable(name, "signal not produced")
		}
		s.WeightHint = e.cfg.Weights[name]
		contributing = append(contributing, s)

		if !s.Available {
			continue
		}
		w := e.cfg.Weights[name]
		v := signal.Clamp(s.Value)
		weightSum += w
		weighted += w * v
		values = append(values, v)
	}

	if len(values) == 0 || weightSum <= 0 {
		return Result{
			Undefined:    true,
			Confidence:   0,
			Contributing: contributing,
		}
	}

	raw := weighted / weightSum
	return Result{
		Plausibility: Calibrate(raw),
		Confidence:   e.confidence(values),
		Contributing: contributing,
	}
}

// Calibrate applies the cubic smoothstep 3x² − 2x³, an order-preserving
// squashing curve that pulls mid-range scores toward the center and extreme
// scores toward the bounds. Fixed points: 0, 0.5 and 1.
func Calibrate(x float64) float64 {
	x = signal.Clamp(x)
	return x * x * (3 - 2*x)
}

// confidence grows with the share of available signals and with agreement
// between them. High disagreement lowers confidence even when the mean is
// extreme; fewer available signals always mean strictly lower confidence
// than the full set with otherwise identical inputs.
func (e *Engine) confidence(values []float64) float64 {
	total := len(e.cfg.Order)
	if total == 0 {
		return 0
	}
	availability := float64(len(values)) / float64(total)

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	// Population variance of values in [0,1] peaks at 0.25, so 4·variance
	// normalizes disagreement to [0,1].
	agreement := 1 - math.Min(1, 4*variance)

	return signal.Clamp(availability * (0.5 + 0.5*agreement))
}
