// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package config loads and validates the service configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file, then VERIDECT_* environment variables. The loaded
// Config is validated once at startup and passed explicitly into the
// components that need it; nothing reads configuration at request time.
package config
