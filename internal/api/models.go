// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package api

import "time"

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Status   string    `json:"status"` // "success" or "error"
	Data     any       `json:"data,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is the structured error body.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// VersionInfo is the /version payload: build identity plus the effective
// tunables a client may need to interpret results. No secrets, no paths.
type VersionInfo struct {
	Version   string             `json:"version"`
	RealMax   float64            `json:"real_max"`
	AIMin     float64            `json:"ai_min"`
	Weights   map[string]float64 `json:"weights"`
	MaxBytes  int64              `json:"max_bytes"`
	MaxUpload int64              `json:"max_upload_bytes"`
	BinWidth  float64            `json:"bin_width"`
}
