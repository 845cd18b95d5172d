// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package resolver

import (
	"errors"
	"fmt"
)

// Kind classifies resolver rejections so the API layer can map each one to
// a stable HTTP status without string matching.
type Kind string

const (
	// KindInvalidReference covers malformed URLs, unsupported schemes and
	// upstream responses that cannot be media.
	KindInvalidReference Kind = "invalid_reference"

	// KindForbiddenHost covers policy rejections: denylisted hosts, hosts
	// outside the allowlist and private/loopback/link-local addresses.
	KindForbiddenHost Kind = "forbidden_host"

	// KindPayloadTooLarge means the live stream exceeded the byte ceiling.
	KindPayloadTooLarge Kind = "payload_too_large"

	// KindTimeout means the wall-clock fetch deadline expired.
	KindTimeout Kind = "timeout"

	// KindUnsupportedContent means the sniffed bytes are not media (HTML
	// error pages, text bodies).
	KindUnsupportedContent Kind = "unsupported_content"

	// KindUnavailable covers transport failures and an open circuit breaker.
	KindUnavailable Kind = "unavailable"
)

// Error is a typed resolver failure.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the resolver error kind, with ok=false for foreign errors.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// clientFault reports whether the error is the caller's fault rather than
// an upstream failure. Client faults must not trip the circuit breaker.
func clientFault(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindInvalidReference, KindForbiddenHost, KindPayloadTooLarge, KindUnsupportedContent:
		return true
	}
	return false
}
