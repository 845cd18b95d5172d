// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/veridect/config.yaml",
	"/etc/veridect/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "VERIDECT_CONFIG"

// envPrefix namespaces all environment overrides, e.g.
// VERIDECT_RESOLVER_MAX_BYTES -> resolver.max_bytes.
const envPrefix = "VERIDECT_"

// Default returns a Config with all default values. Defaults are applied
// first, then overridden by config file and environment variables.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			Timeout:         60 * time.Second,
			CORSOrigins:     []string{},
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
		},
		Resolver: ResolverConfig{
			MaxBytes:             100 << 20, // 100 MiB
			MaxUploadBytes:       50 << 20,  // 50 MiB
			Timeout:              30 * time.Second,
			AllowedSchemes:       []string{"http", "https"},
			HostAllowlist:        []string{},
			HostDenylist:         []string{},
			DenyPrivateAddresses: true,
			SampleSeconds:        8,
			ThrottleBytesPerSec:  0, // unlimited
			SpoolDir:             "",
		},
		Signals: SignalsConfig{
			Order: []string{"metadata", "frame", "audio"},
			Weights: map[string]float64{
				"metadata": 0.30,
				"frame":    0.45,
				"audio":    0.25,
			},
			Timeout:     10 * time.Second,
			FFprobePath: "ffprobe",
		},
		Decision: DecisionConfig{
			RealMax: 0.35,
			AIMin:   0.72,
		},
		Timeline: TimelineConfig{
			BinWidth: 1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values from Default()
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: VERIDECT_* overrides
//
// Precedence: ENV > file > defaults. The result is validated; a validation
// failure here is fatal at startup, never surfaced at request time.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps environment variable names to koanf paths. The first
// underscore separates the section from the key:
//
//	VERIDECT_RESOLVER_MAX_BYTES -> resolver.max_bytes
//	VERIDECT_DECISION_AI_MIN    -> decision.ai_min
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}

// sliceFields are comma-separated when provided via environment variables.
var sliceFields = []string{
	"server.cors_origins",
	"resolver.allowed_schemes",
	"resolver.host_allowlist",
	"resolver.host_denylist",
	"signals.order",
}

// processSliceFields converts comma-separated env strings to slices so that
// k.Unmarshal can populate []string fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, field := range sliceFields {
		raw := k.Get(field)
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(field, parts); err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
	}
	return nil
}
