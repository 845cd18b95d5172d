// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package media

import (
	"os"
	"path/filepath"
	"testing"
)

func newSpoolFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spool.bin")
	if err := os.WriteFile(path, []byte("fake media bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReleaseDeletesSpoolFile(t *testing.T) {
	r := &Resolved{Path: newSpoolFile(t), ByteCount: 16}

	if err := r.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(r.Path); !os.IsNotExist(err) {
		t.Error("spool file should be deleted after Release")
	}
	if !r.Released() {
		t.Error("Released() should report true")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := &Resolved{Path: newSpoolFile(t)}
	if err := r.Release(); err != nil {
		t.Fatalf("first Release() failed: %v", err)
	}
	if err := r.Release(); err != nil {
		t.Fatalf("second Release() must be a no-op, got: %v", err)
	}
}

func TestReleaseNilReceiver(t *testing.T) {
	var r *Resolved
	if err := r.Release(); err != nil {
		t.Fatalf("Release() on nil receiver must be a no-op, got: %v", err)
	}
}

func TestOpenAfterReleaseFails(t *testing.T) {
	r := &Resolved{Path: newSpoolFile(t)}
	if err := r.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Open(); err == nil {
		t.Fatal("Open() after Release() must fail")
	}
}

func TestReferenceConstructors(t *testing.T) {
	up := NewUploadReference("clip.mp4", 1024, "video/mp4")
	if up.Kind != KindUpload || up.Location != "clip.mp4" || up.DeclaredSize != 1024 {
		t.Errorf("unexpected upload reference: %+v", up)
	}

	u := NewURLReference("https://cdn.example/clip.mp4")
	if u.Kind != KindURL || u.Location != "https://cdn.example/clip.mp4" {
		t.Errorf("unexpected url reference: %+v", u)
	}
}
