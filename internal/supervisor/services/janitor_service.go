// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/veridect/veridect/internal/logging"
	"github.com/veridect/veridect/internal/metrics"
	"github.com/veridect/veridect/internal/resolver"
)

// SpoolJanitorService periodically removes orphaned spool files. Spool
// files are deleted by the request that created them; orphans only exist
// after a crash or kill, so a file old enough that no in-flight request
// can still own it is safe to remove.
type SpoolJanitorService struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
}

// NewSpoolJanitorService sweeps dir every interval, removing spool files
// older than maxAge. An empty dir means os.TempDir(), matching where the
// resolver spools by default.
func NewSpoolJanitorService(dir string, interval, maxAge time.Duration) *SpoolJanitorService {
	if dir == "" {
		dir = os.TempDir()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &SpoolJanitorService{dir: dir, interval: interval, maxAge: maxAge}
}

// Serve implements suture.Service.
func (j *SpoolJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SpoolJanitorService) sweep() {
	metrics.JanitorSweeps.Inc()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		logging.Warn().Err(err).Str("dir", j.dir).Msg("Spool sweep failed")
		return
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), resolver.SpoolPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			logging.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove orphaned spool file")
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.JanitorFilesRemoved.Add(float64(removed))
		logging.Info().Int("removed", removed).Str("dir", j.dir).Msg("Removed orphaned spool files")
	}
}

// String identifies the service in supervisor logs.
func (j *SpoolJanitorService) String() string { return "spool-janitor" }
