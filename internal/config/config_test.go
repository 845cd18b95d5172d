// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate, got: %v", err)
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.Decision.RealMax = 0.72
	cfg.Decision.AIMin = 0.35
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when real_max >= ai_min")
	}
	if !strings.Contains(err.Error(), "real_max") {
		t.Errorf("error should name real_max, got: %v", err)
	}

	// Equal thresholds are rejected too.
	cfg.Decision.RealMax = 0.5
	cfg.Decision.AIMin = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when real_max == ai_min")
	}
}

func TestValidateNegativeWeight(t *testing.T) {
	cfg := Default()
	cfg.Signals.Weights["frame"] = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestValidateMissingWeight(t *testing.T) {
	cfg := Default()
	delete(cfg.Signals.Weights, "audio")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for signal without weight")
	}
}

func TestValidateUnknownWeight(t *testing.T) {
	cfg := Default()
	cfg.Signals.Weights["ghost"] = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weight naming an unknown signal")
	}
}

func TestValidateZeroWeightSum(t *testing.T) {
	cfg := Default()
	for name := range cfg.Signals.Weights {
		cfg.Signals.Weights[name] = 0
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when all weights are zero")
	}
}

func TestValidateSchemes(t *testing.T) {
	cfg := Default()
	cfg.Resolver.AllowedSchemes = []string{"ftp"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http scheme")
	}

	cfg.Resolver.AllowedSchemes = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty scheme list")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"VERIDECT_RESOLVER_MAX_BYTES", "resolver.max_bytes"},
		{"VERIDECT_DECISION_AI_MIN", "decision.ai_min"},
		{"VERIDECT_SERVER_PORT", "server.port"},
		{"VERIDECT_LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VERIDECT_DECISION_AI_MIN", "0.8")
	t.Setenv("VERIDECT_RESOLVER_HOST_DENYLIST", "evil.example, bad.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Decision.AIMin != 0.8 {
		t.Errorf("ai_min = %g, want 0.8 from env", cfg.Decision.AIMin)
	}
	if len(cfg.Resolver.HostDenylist) != 2 || cfg.Resolver.HostDenylist[0] != "evil.example" {
		t.Errorf("host_denylist = %v, want two entries from env CSV", cfg.Resolver.HostDenylist)
	}
}

func TestLoadInvalidEnvFailsStartup(t *testing.T) {
	t.Setenv("VERIDECT_DECISION_REAL_MAX", "0.9")
	// real_max 0.9 >= ai_min 0.72 must fail validation at load time.
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to reject real_max >= ai_min")
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Resolver.MaxBytes != 100<<20 {
		t.Errorf("default max_bytes = %d, want 100 MiB", cfg.Resolver.MaxBytes)
	}
	if cfg.Resolver.Timeout != 30*time.Second {
		t.Errorf("default resolver timeout = %s, want 30s", cfg.Resolver.Timeout)
	}
	if got := cfg.Signals.Weights["frame"]; got != 0.45 {
		t.Errorf("default frame weight = %g, want 0.45", got)
	}
	if !cfg.Resolver.DenyPrivateAddresses {
		t.Error("private address denial must default to enabled")
	}
}

func TestFindConfigFileEnvOverride(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	t.Setenv(ConfigPathEnvVar, f.Name())
	if got := findConfigFile(); got != f.Name() {
		t.Errorf("findConfigFile() = %q, want %q", got, f.Name())
	}

	t.Setenv(ConfigPathEnvVar, "/nonexistent/path.yaml")
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty for missing override", got)
	}
}
