// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton and translates field errors into the API's error shape.
//
// Example:
//
//	type AnalyzeRequest struct {
//	    URL string `validate:"omitempty,http_url"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
