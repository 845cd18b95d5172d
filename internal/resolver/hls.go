// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package resolver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/veridect/veridect/internal/logging"
	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/metrics"
)

// Segmented (HLS) assets are effectively unbounded: a live stream never
// ends and a long VOD playlist can dwarf any byte ceiling. Instead of
// fetching the whole asset the resolver samples segments from the front of
// the playlist until the sample window is covered, and marks the result so
// scoring can report reduced confidence.

const (
	maxPlaylistBytes  = 1 << 20
	maxSampleSegments = 32
)

// hlsSegment is one media segment entry from a playlist.
type hlsSegment struct {
	uri      string
	duration float64
}

func isPlaylistURL(u *url.URL) bool {
	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, ".m3u8") || strings.HasSuffix(p, ".m3u")
}

func isPlaylistBytes(head []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(head, "\xef\xbb\xbf \t\r\n"), []byte("#EXTM3U"))
}

// sampleHLS fetches playlist segments covering the configured sample window
// into a single spool file. Master playlists are followed one level deep to
// their first variant.
func (r *Resolver) sampleHLS(ctx context.Context, u *url.URL) (*media.Resolved, error) {
	segments, err := r.loadPlaylist(ctx, u, true)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, newError(KindUnsupportedContent, "playlist has no media segments")
	}

	window := float64(r.cfg.SampleSeconds)
	spool, err := r.spoolFile(".ts")
	if err != nil {
		return nil, err
	}

	var (
		total   int64
		covered float64
	)
	for i, seg := range segments {
		// The segment cap backstops playlists with missing EXTINF durations.
		if covered >= window || i >= maxSampleSegments {
			break
		}
		segURL, err := r.resolveSegmentURL(u, seg.uri)
		if err != nil {
			discardSpool(spool)
			return nil, err
		}
		body, err := r.get(ctx, segURL)
		if err != nil {
			discardSpool(spool)
			return nil, err
		}
		n, _, err := r.cappedCopy(ctx, spool, body, r.cfg.MaxBytes, total)
		body.Close()
		if err != nil {
			discardSpool(spool)
			return nil, err
		}
		total += n
		covered += seg.duration
	}

	if total == 0 {
		discardSpool(spool)
		return nil, newError(KindUnsupportedContent, "playlist segments yielded no bytes")
	}
	if err := spool.Close(); err != nil {
		os.Remove(spool.Name())
		return nil, fmt.Errorf("closing spool file: %w", err)
	}

	metrics.ResolveSampled.Inc()
	logging.Debug().
		Str("playlist", u.String()).
		Float64("window_seconds", covered).
		Int64("bytes", total).
		Msg("sampled segmented media")

	return &media.Resolved{
		Path:                spool.Name(),
		ByteCount:           total,
		ContentType:         "video/mp2t",
		Sampled:             true,
		SampleWindowSeconds: covered,
	}, nil
}

// loadPlaylist fetches and parses a playlist. followMaster permits one hop
// into the first variant of a master playlist.
func (r *Resolver) loadPlaylist(ctx context.Context, u *url.URL, followMaster bool) ([]hlsSegment, error) {
	body, err := r.get(ctx, u)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(body, maxPlaylistBytes))
	body.Close()
	if err != nil {
		return nil, translateFetchErr(err)
	}
	if !isPlaylistBytes(data) {
		return nil, newError(KindUnsupportedContent, "response is not an HLS playlist")
	}

	segments, variant := parsePlaylist(data)
	if len(segments) > 0 {
		return segments, nil
	}
	if variant != "" && followMaster {
		variantURL, err := r.resolveSegmentURL(u, variant)
		if err != nil {
			return nil, err
		}
		return r.loadPlaylist(ctx, variantURL, false)
	}
	return nil, nil
}

// resolveSegmentURL resolves a possibly-relative playlist URI and runs it
// through the same host policy as the playlist itself.
func (r *Resolver) resolveSegmentURL(base *url.URL, ref string) (*url.URL, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, wrapError(KindInvalidReference, err, "unparseable segment uri")
	}
	resolved := base.ResolveReference(refURL)
	return r.policy.ValidateURL(resolved.String())
}

// parsePlaylist extracts media segments from a playlist, or the first
// variant URI when the playlist is a master playlist.
func parsePlaylist(data []byte) (segments []hlsSegment, firstVariant string) {
	var (
		pendingDur   float64
		expectMedia  bool
		expectStream bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || line == "#EXTM3U":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			pendingDur = parseExtInf(line)
			expectMedia = true
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			expectStream = true
		case strings.HasPrefix(line, "#"):
			continue
		case expectMedia:
			segments = append(segments, hlsSegment{uri: line, duration: pendingDur})
			expectMedia = false
		case expectStream:
			if firstVariant == "" {
				firstVariant = line
			}
			expectStream = false
		}
	}
	return segments, firstVariant
}

// parseExtInf reads the duration out of "#EXTINF:<seconds>,<title>".
func parseExtInf(line string) float64 {
	v := strings.TrimPrefix(line, "#EXTINF:")
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
