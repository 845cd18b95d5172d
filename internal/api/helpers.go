// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/veridect/veridect/internal/logging"
)

// sanitizeLogValue strips control characters so attacker-supplied strings
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			b.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r.Context()),
		},
	}
	writeJSON(w, status, resp)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	logging.Warn().
		Str("code", sanitizeLogValue(code)).
		Str("message", sanitizeLogValue(message)).
		Int("status", status).
		Str("request_id", requestIDFrom(r.Context())).
		Msg("request rejected")

	resp := &APIResponse{
		Status: "error",
		Metadata: &Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r.Context()),
		},
		Error: &APIError{Code: code, Message: message, Details: details},
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, resp *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}
