// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for internal consistency. It is called
// once during Load; any error here aborts startup.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateSignals(); err != nil {
		return err
	}
	if err := c.validateDecision(); err != nil {
		return err
	}
	if c.Timeline.BinWidth <= 0 {
		return fmt.Errorf("timeline.bin_width must be positive, got %g", c.Timeline.BinWidth)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("server.rate_limit_reqs must be at least 1, got %d", c.Server.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateResolver() error {
	r := &c.Resolver
	if r.MaxBytes <= 0 {
		return fmt.Errorf("resolver.max_bytes must be positive, got %d", r.MaxBytes)
	}
	if r.MaxUploadBytes <= 0 {
		return fmt.Errorf("resolver.max_upload_bytes must be positive, got %d", r.MaxUploadBytes)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be positive, got %s", r.Timeout)
	}
	if len(r.AllowedSchemes) == 0 {
		return fmt.Errorf("resolver.allowed_schemes must not be empty")
	}
	for _, s := range r.AllowedSchemes {
		switch strings.ToLower(s) {
		case "http", "https":
		default:
			return fmt.Errorf("resolver.allowed_schemes: unsupported scheme %q", s)
		}
	}
	if r.SampleSeconds <= 0 {
		return fmt.Errorf("resolver.sample_seconds must be positive, got %d", r.SampleSeconds)
	}
	if r.ThrottleBytesPerSec < 0 {
		return fmt.Errorf("resolver.throttle_bytes_per_sec must not be negative, got %d", r.ThrottleBytesPerSec)
	}
	return nil
}

func (c *Config) validateSignals() error {
	s := &c.Signals
	if len(s.Order) == 0 {
		return fmt.Errorf("signals.order must not be empty")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("signals.timeout must be positive, got %s", s.Timeout)
	}

	seen := make(map[string]bool, len(s.Order))
	total := 0.0
	for _, name := range s.Order {
		if seen[name] {
			return fmt.Errorf("signals.order: duplicate signal %q", name)
		}
		seen[name] = true

		w, ok := s.Weights[name]
		if !ok {
			return fmt.Errorf("signals.weights: missing weight for signal %q", name)
		}
		if w < 0 {
			return fmt.Errorf("signals.weights: weight for %q must not be negative, got %g", name, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("signals.weights: weights must sum to a positive value, got %g", total)
	}
	for name := range s.Weights {
		if !seen[name] {
			return fmt.Errorf("signals.weights: weight for unknown signal %q", name)
		}
	}
	return nil
}

func (c *Config) validateDecision() error {
	d := &c.Decision
	if d.RealMax < 0 || d.RealMax > 1 {
		return fmt.Errorf("decision.real_max must be in [0,1], got %g", d.RealMax)
	}
	if d.AIMin < 0 || d.AIMin > 1 {
		return fmt.Errorf("decision.ai_min must be in [0,1], got %g", d.AIMin)
	}
	if d.RealMax >= d.AIMin {
		return fmt.Errorf("decision.real_max (%g) must be strictly less than decision.ai_min (%g)", d.RealMax, d.AIMin)
	}
	return nil
}
