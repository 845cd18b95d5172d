// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package api

import (
	"net/http"

	"github.com/veridect/veridect/internal/resolver"
)

// respondResolverError maps typed resolver failures onto HTTP statuses.
// Every resolver rejection is terminal for the request.
func respondResolverError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := resolver.KindOf(err)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "analysis failed", nil)
		return
	}

	status := http.StatusBadRequest
	code := "INVALID_REFERENCE"
	switch kind {
	case resolver.KindInvalidReference:
		status, code = http.StatusBadRequest, "INVALID_REFERENCE"
	case resolver.KindForbiddenHost:
		status, code = http.StatusForbidden, "FORBIDDEN_HOST"
	case resolver.KindPayloadTooLarge:
		status, code = http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case resolver.KindUnsupportedContent:
		status, code = http.StatusUnsupportedMediaType, "UNSUPPORTED_CONTENT"
	case resolver.KindTimeout:
		status, code = http.StatusGatewayTimeout, "FETCH_TIMEOUT"
	case resolver.KindUnavailable:
		status, code = http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	}
	respondError(w, r, status, code, err.Error(), map[string]any{"kind": string(kind)})
}
