// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package media defines the request-scoped media model shared by the
// resolver and the signal adapters.
//
// A Reference describes where media comes from (an upload or a remote URL)
// and is immutable once created. A Resolved holds the bounded local bytes
// for exactly one request: the resolver owns it until it is handed to the
// adapters, adapters read it concurrently but never mutate it, and Release
// deletes the backing file on every exit path. Nothing survives the request.
package media

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Kind distinguishes the two acquisition paths.
type Kind string

const (
	// KindUpload is a file submitted directly in the request body.
	KindUpload Kind = "upload"

	// KindURL is a remote asset fetched by the resolver.
	KindURL Kind = "url"
)

// Reference identifies a piece of media to acquire. Immutable once created.
type Reference struct {
	Kind     Kind
	Location string // URL for KindURL, original filename for KindUpload

	// DeclaredSize is the client-declared byte count, 0 if unknown. It is
	// advisory only; ceilings are always enforced on the live stream.
	DeclaredSize int64

	// DeclaredType is the client-declared content type, "" if unknown.
	// Advisory only; the real type is sniffed from bytes.
	DeclaredType string
}

// NewUploadReference builds a Reference for an uploaded file.
func NewUploadReference(filename string, declaredSize int64, declaredType string) Reference {
	return Reference{
		Kind:         KindUpload,
		Location:     filename,
		DeclaredSize: declaredSize,
		DeclaredType: declaredType,
	}
}

// NewURLReference builds a Reference for a remote URL.
func NewURLReference(url string) Reference {
	return Reference{Kind: KindURL, Location: url}
}

// Resolved is bounded, locally-held media. The backing file lives only for
// the duration of one request; call Release on every exit path.
type Resolved struct {
	// Path is the spool file holding the media bytes.
	Path string

	// ByteCount is the number of bytes actually held, always within policy.
	ByteCount int64

	// ContentType is the MIME type sniffed from the actual bytes.
	ContentType string

	// DurationSeconds is the probed media duration, 0 until known.
	DurationSeconds float64

	// Sampled is true when only a bounded window of a segmented asset was
	// fetched instead of the whole stream.
	Sampled bool

	// SampleWindowSeconds is the length of the sampled window when Sampled.
	SampleWindowSeconds float64

	released atomic.Bool
}

// Open opens the backing file for reading. Callers must not write to it.
func (r *Resolved) Open() (*os.File, error) {
	if r.released.Load() {
		return nil, fmt.Errorf("media already released: %s", r.Path)
	}
	return os.Open(r.Path)
}

// Release deletes the backing file. It is idempotent and safe to call from
// deferred cleanup on success, rejection and error paths alike.
func (r *Resolved) Release() error {
	if r == nil || !r.released.CompareAndSwap(false, true) {
		return nil
	}
	if r.Path == "" {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove spool file: %w", err)
	}
	return nil
}

// Released reports whether Release has been called.
func (r *Resolved) Released() bool {
	return r.released.Load()
}
