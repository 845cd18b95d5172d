// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package resolver acquires request media under a hard security policy:
// every ceiling (bytes, wall clock, address ranges) is enforced on the live
// stream, never trusted from declared headers. Whatever the outcome, nothing
// the resolver fetched survives the request.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/veridect/veridect/internal/config"
	"github.com/veridect/veridect/internal/logging"
	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/metrics"
)

const (
	chunkSize    = 64 << 10
	maxRedirects = 5
	userAgent    = "veridect/1.0"
)

// SpoolPrefix names every spool file so the janitor can recognize
// orphans left behind by a crashed process.
const SpoolPrefix = "veridect-"

// Resolver turns a media.Reference into bounded local bytes.
type Resolver struct {
	cfg     config.ResolverConfig
	policy  *Policy
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*media.Resolved]
	limiter *rate.Limiter
}

// New builds a Resolver from config. The HTTP client re-validates every
// redirect hop and re-checks the connect address after DNS resolution.
func New(cfg config.ResolverConfig) *Resolver {
	policy := NewPolicy(cfg)

	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: policy.DialControl,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return newError(KindInvalidReference, "too many redirects")
			}
			if _, err := policy.ValidateURL(req.URL.String()); err != nil {
				return err
			}
			return nil
		},
	}

	var limiter *rate.Limiter
	if cfg.ThrottleBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ThrottleBytesPerSec), chunkSize)
	}

	return &Resolver{
		cfg:     cfg,
		policy:  policy,
		client:  client,
		breaker: newFetchBreaker(),
		limiter: limiter,
	}
}

// newFetchBreaker wraps remote fetches so a failing upstream cannot keep
// tying up request workers. Policy rejections are the caller's fault and do
// not count toward opening the circuit.
func newFetchBreaker() *gobreaker.CircuitBreaker[*media.Resolved] {
	const name = "remote-fetch"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*media.Resolved](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil || clientFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

// Resolve acquires the referenced media. The returned Resolved owns a spool
// file; the caller must Release it on every exit path.
func (r *Resolver) Resolve(ctx context.Context, ref media.Reference) (*media.Resolved, error) {
	if ref.Kind != media.KindURL {
		return nil, newError(KindInvalidReference, "reference kind %q is not resolvable by URL", ref.Kind)
	}

	start := time.Now()
	resolved, err := r.resolveURL(ctx, ref.Location)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			metrics.ResolveErrors.WithLabelValues(string(kind)).Inc()
		}
	}
	metrics.ResolveDuration.WithLabelValues("url", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	metrics.ResolveBytes.Observe(float64(resolved.ByteCount))
	logging.Debug().
		Str("url", ref.Location).
		Int64("bytes", resolved.ByteCount).
		Str("content_type", resolved.ContentType).
		Bool("sampled", resolved.Sampled).
		Msg("media resolved")
	return resolved, nil
}

func (r *Resolver) resolveURL(ctx context.Context, raw string) (*media.Resolved, error) {
	u, err := r.policy.ValidateURL(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resolved, err := r.breaker.Execute(func() (*media.Resolved, error) {
		if isPlaylistURL(u) {
			return r.sampleHLS(ctx, u)
		}
		return r.fetch(ctx, u)
	})
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues("remote-fetch", breakerResult(err)).Inc()
		return nil, translateFetchErr(err)
	}
	metrics.CircuitBreakerRequests.WithLabelValues("remote-fetch", "success").Inc()
	return resolved, nil
}

// fetch streams the URL body into a spool file under the byte ceiling. When
// the body turns out to be an HLS playlist it falls through to bounded
// segment sampling instead.
func (r *Resolver) fetch(ctx context.Context, u *url.URL) (*media.Resolved, error) {
	body, err := r.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	spool, err := r.spoolFile(u.Path)
	if err != nil {
		return nil, err
	}

	written, head, err := r.cappedCopy(ctx, spool, body, r.cfg.MaxBytes, 0)
	if err != nil {
		discardSpool(spool)
		return nil, err
	}

	if isPlaylistBytes(head) {
		// The URL pointed at a playlist without a telltale extension.
		discardSpool(spool)
		return r.sampleHLS(ctx, u)
	}

	mt := mimetype.Detect(head)
	if err := rejectNonMedia(mt); err != nil {
		discardSpool(spool)
		return nil, err
	}
	if err := spool.Close(); err != nil {
		os.Remove(spool.Name())
		return nil, fmt.Errorf("closing spool file: %w", err)
	}

	return &media.Resolved{
		Path:        spool.Name(),
		ByteCount:   written,
		ContentType: mt.String(),
	}, nil
}

// get issues the request and normalizes non-200 responses into typed errors.
func (r *Resolver) get(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, wrapError(KindInvalidReference, err, "building request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, translateFetchErr(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, newError(KindInvalidReference, "upstream returned status %d", resp.StatusCode)
		}
		return nil, newError(KindUnavailable, "upstream returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// cappedCopy copies src into dst enforcing the byte ceiling on the live
// stream, aborting no later than one chunk past the cap. already counts
// bytes charged against the cap by earlier segments of the same request.
// It returns the bytes written and the first bytes for sniffing.
func (r *Resolver) cappedCopy(ctx context.Context, dst io.Writer, src io.Reader, ceiling, already int64) (int64, []byte, error) {
	var (
		total int64
		head  []byte
		buf   = make([]byte, chunkSize)
	)
	for {
		if err := ctx.Err(); err != nil {
			return total, head, translateFetchErr(err)
		}
		n, err := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if already+total > ceiling {
				return total, head, newError(KindPayloadTooLarge, "stream exceeded %d byte ceiling", ceiling)
			}
			if r.limiter != nil {
				if werr := r.limiter.WaitN(ctx, n); werr != nil {
					return total, head, translateFetchErr(werr)
				}
			}
			if len(head) < 3072 {
				head = append(head, buf[:min(n, 3072-len(head))]...)
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, head, fmt.Errorf("writing spool file: %w", werr)
			}
		}
		if err == io.EOF {
			return total, head, nil
		}
		if err != nil {
			return total, head, translateFetchErr(err)
		}
	}
}

// ResolveUpload spools an uploaded body under the upload ceiling.
func (r *Resolver) ResolveUpload(ctx context.Context, body io.Reader, ref media.Reference) (*media.Resolved, error) {
	start := time.Now()
	resolved, err := r.resolveUpload(ctx, body, ref)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			metrics.ResolveErrors.WithLabelValues(string(kind)).Inc()
		}
	}
	metrics.ResolveDuration.WithLabelValues("upload", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.ResolveBytes.Observe(float64(resolved.ByteCount))
	return resolved, nil
}

func (r *Resolver) resolveUpload(ctx context.Context, body io.Reader, ref media.Reference) (*media.Resolved, error) {
	if ref.DeclaredSize > r.cfg.MaxUploadBytes {
		return nil, newError(KindPayloadTooLarge, "declared size %d exceeds %d byte ceiling",
			ref.DeclaredSize, r.cfg.MaxUploadBytes)
	}

	spool, err := r.spoolFile(ref.Location)
	if err != nil {
		return nil, err
	}

	written, head, err := r.cappedCopy(ctx, spool, body, r.cfg.MaxUploadBytes, 0)
	if err != nil {
		discardSpool(spool)
		return nil, err
	}
	if written == 0 {
		discardSpool(spool)
		return nil, newError(KindInvalidReference, "empty upload body")
	}

	mt := mimetype.Detect(head)
	if err := rejectNonMedia(mt); err != nil {
		discardSpool(spool)
		return nil, err
	}
	if err := spool.Close(); err != nil {
		os.Remove(spool.Name())
		return nil, fmt.Errorf("closing spool file: %w", err)
	}

	return &media.Resolved{
		Path:        spool.Name(),
		ByteCount:   written,
		ContentType: mt.String(),
	}, nil
}

// spoolFile creates the per-request temp file holding media bytes. The
// uuid name keeps concurrent requests from colliding; the original
// extension is preserved for tooling that keys on it.
func (r *Resolver) spoolFile(sourcePath string) (*os.File, error) {
	dir := r.cfg.SpoolDir
	if dir == "" {
		dir = os.TempDir()
	}
	ext := filepath.Ext(sourcePath)
	if ext == "" || len(ext) > 8 {
		ext = ".bin"
	}
	name := filepath.Join(dir, SpoolPrefix+uuid.NewString()+ext)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w", err)
	}
	return f, nil
}

func discardSpool(f *os.File) {
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("path", name).Msg("failed to remove spool file")
	}
}

// rejectNonMedia refuses sniffed types that cannot be audio/video. An HTML
// or text body is almost always an error page or a paywall interstitial.
func rejectNonMedia(mt *mimetype.MIME) error {
	t := mt.String()
	if strings.HasPrefix(t, "text/") || mt.Is("text/html") || strings.HasPrefix(t, "application/json") ||
		strings.HasPrefix(t, "application/xml") {
		return newError(KindUnsupportedContent, "sniffed content type %q is not media", t)
	}
	return nil
}

// translateFetchErr folds transport and context errors into typed kinds,
// passing already-typed errors through untouched.
func translateFetchErr(err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return wrapError(KindUnavailable, err, "remote fetches suspended")
	case errors.Is(err, context.DeadlineExceeded):
		return wrapError(KindTimeout, err, "fetch deadline exceeded")
	case errors.Is(err, context.Canceled):
		return wrapError(KindTimeout, err, "fetch canceled")
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return wrapError(KindTimeout, err, "fetch timed out")
		}
		return translateFetchErr(uerr.Err)
	}
	return wrapError(KindUnavailable, err, "fetch failed")
}

func breakerResult(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "rejected"
	}
	if clientFault(err) {
		return "client_fault"
	}
	return "failure"
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
