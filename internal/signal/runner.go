// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package signal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veridect/veridect/internal/logging"
	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/metrics"
)

// Runner executes registered adapters concurrently, each under its own
// deadline, and joins them at a barrier. Exceeding a deadline cancels only
// that adapter; the rest of the request proceeds with reduced signals.
type Runner struct {
	order    []string
	adapters map[string]Adapter
	timeout  time.Duration
}

// NewRunner creates a runner evaluating adapters in the given name order.
// Adapters not named in order are ignored; names in order with no matching
// adapter come back as unavailable signals.
func NewRunner(order []string, timeout time.Duration, adapters ...Adapter) *Runner {
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	ordered := make([]string, len(order))
	copy(ordered, order)
	return &Runner{
		order:    ordered,
		adapters: byName,
		timeout:  timeout,
	}
}

// Run scores the media with every configured adapter in parallel and returns
// the scores in the runner's fixed name order. The returned slice always has
// one entry per configured signal; adapters that fail, panic or time out are
// reported as unavailable, never as errors.
func (r *Runner) Run(ctx context.Context, m *media.Resolved) []Score {
	results := make([]Score, len(r.order))

	var wg sync.WaitGroup
	for i, name := range r.order {
		adapter, ok := r.adapters[name]
		if !ok {
			results[i] = Unavailable(name, "no adapter registered")
			continue
		}

		wg.Add(1)
		go func(i int, name string, adapter Adapter) {
			defer wg.Done()
			results[i] = r.runOne(ctx, name, adapter, m)
		}(i, name, adapter)
	}
	wg.Wait()

	return results
}

// runOne executes a single adapter under its timeout with panic recovery.
func (r *Runner) runOne(ctx context.Context, name string, adapter Adapter, m *media.Resolved) Score {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Score, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error().Str("signal", name).Any("panic", rec).Msg("signal adapter panicked")
				metrics.ObserveSignal(name, time.Since(start), false, "panic")
				done <- Unavailable(name, fmt.Sprintf("adapter panic: %v", rec))
			}
		}()
		done <- adapter.Score(ctx, m)
	}()

	select {
	case score := <-done:
		score.Name = name
		metrics.ObserveSignal(name, time.Since(start), score.Available, "error")
		return score
	case <-ctx.Done():
		// The adapter goroutine may still be running; it writes into the
		// buffered channel and exits. The media file outlives it because the
		// analyzer releases media only after the barrier.
		logging.Warn().Str("signal", name).Dur("elapsed", time.Since(start)).Msg("signal adapter deadline exceeded")
		metrics.ObserveSignal(name, time.Since(start), false, "timeout")
		return Unavailable(name, "deadline exceeded")
	}
}
