// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package config

import "time"

// Config is the root configuration for the service. It is loaded once at
// process start and treated as read-only afterwards; no component reads
// ambient global state at request time.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Resolver ResolverConfig `koanf:"resolver"`
	Signals  SignalsConfig  `koanf:"signals"`
	Decision DecisionConfig `koanf:"decision"`
	Timeline TimelineConfig `koanf:"timeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener and its middleware.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// ResolverConfig is the security policy for acquiring media. Every ceiling
// here is enforced on the live stream, never only on declared headers.
type ResolverConfig struct {
	// MaxBytes is the hard cap for remote fetches.
	MaxBytes int64 `koanf:"max_bytes"`

	// MaxUploadBytes is the hard cap for direct uploads. The original system
	// kept the upload ceiling lower than the remote-fetch ceiling.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// Timeout is the wall-clock deadline for the whole fetch.
	Timeout time.Duration `koanf:"timeout"`

	AllowedSchemes []string `koanf:"allowed_schemes"`

	// HostAllowlist, when non-empty, restricts fetches to the listed hosts
	// (exact or suffix match). HostDenylist always wins over the allowlist.
	HostAllowlist []string `koanf:"host_allowlist"`
	HostDenylist  []string `koanf:"host_denylist"`

	// DenyPrivateAddresses rejects URLs resolving to loopback, RFC1918 or
	// link-local ranges to block internal-network probing.
	DenyPrivateAddresses bool `koanf:"deny_private_addresses"`

	// SampleSeconds bounds the window fetched for segmented (HLS) media
	// instead of downloading the whole asset.
	SampleSeconds int `koanf:"sample_seconds"`

	// ThrottleBytesPerSec limits download read rate. 0 disables throttling.
	ThrottleBytesPerSec int64 `koanf:"throttle_bytes_per_sec"`

	// SpoolDir is where bounded media bytes are held for the request
	// lifetime. Empty means os.TempDir().
	SpoolDir string `koanf:"spool_dir"`
}

// SignalsConfig configures the signal adapters and their fusion weights.
type SignalsConfig struct {
	// Order fixes the evaluation and reporting order of signals so that
	// identical inputs always produce identically-ordered results.
	Order []string `koanf:"order"`

	// Weights maps signal name to its nominal fusion weight.
	Weights map[string]float64 `koanf:"weights"`

	// Timeout is the per-adapter time budget. A slow adapter is treated as
	// unavailable, it never blocks the rest of the request.
	Timeout time.Duration `koanf:"timeout"`

	// FFprobePath is the ffprobe binary used by the probe-backed adapters.
	FFprobePath string `koanf:"ffprobe_path"`
}

// DecisionConfig holds the verdict thresholds.
type DecisionConfig struct {
	// RealMax: plausibility strictly below it maps to LikelyOriginal.
	RealMax float64 `koanf:"real_max"`

	// AIMin: plausibility strictly above it maps to LikelyAI. Values equal
	// to either threshold resolve to Inconclusive.
	AIMin float64 `koanf:"ai_min"`
}

// TimelineConfig configures per-segment score binning.
type TimelineConfig struct {
	// BinWidth is the width of each timeline bin in seconds.
	BinWidth float64 `koanf:"bin_width"`
}

// LoggingConfig mirrors logging.Config for koanf loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SignalNames returns the configured signal order.
func (c *Config) SignalNames() []string {
	out := make([]string, len(c.Signals.Order))
	copy(out, c.Signals.Order)
	return out
}
