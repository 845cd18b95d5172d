// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

// Package probe shells out to ffprobe and exposes the container, stream and
// packet metadata the signal adapters score against.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Summary is the condensed container/stream view used by the adapters.
type Summary struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	DurationSeconds float64 `json:"duration_seconds"`
	BitRate         int64   `json:"bit_rate"`
	VideoCodec      string  `json:"vcodec,omitempty"`
	AudioCodec      string  `json:"acodec,omitempty"`
	FormatName      string  `json:"format_name"`
	Encoder         string  `json:"encoder,omitempty"`
	CreationTime    string  `json:"creation_time,omitempty"`
	HasVideo        bool    `json:"has_video"`
	HasAudio        bool    `json:"has_audio"`
}

// Packet is one demuxed packet: presentation time and payload size.
type Packet struct {
	PTS  float64
	Size int64
}

// Prober runs a configurable ffprobe binary.
type Prober struct {
	binary string
}

// New returns a Prober using the given ffprobe binary, or "ffprobe" from
// PATH when empty.
func New(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary}
}

// Inspect probes format and stream metadata for the media at path.
func (p *Prober) Inspect(ctx context.Context, path string) (Summary, error) {
	if strings.TrimSpace(path) == "" {
		return Summary{}, errors.New("probe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error", "-hide_banner",
		"-print_format", "json",
		"-show_format", "-show_streams",
		"--", path)
	out, err := cmd.Output()
	if err != nil {
		return Summary{}, fmt.Errorf("probe inspect: %w: %s", err, exitDetail(err))
	}
	return parseSummary(out)
}

// Packets lists packets for one stream selector (e.g. "v:0", "a:0"),
// ordered by presentation time as ffprobe emits them.
func (p *Prober) Packets(ctx context.Context, path, stream string) ([]Packet, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("probe packets: empty path")
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error", "-hide_banner",
		"-print_format", "json",
		"-select_streams", stream,
		"-show_entries", "packet=pts_time,size",
		"--", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probe packets: %w: %s", err, exitDetail(err))
	}
	return parsePackets(out)
}

func exitDetail(err error) string {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return strings.TrimSpace(string(ee.Stderr))
	}
	return ""
}

// ffprobe reports most numerics as strings; the raw shapes below keep the
// decode honest before conversion.

type rawProbe struct {
	Streams []rawStream `json:"streams"`
	Format  rawFormat   `json:"format"`
}

type rawStream struct {
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Duration     string            `json:"duration"`
	BitRate      string            `json:"bit_rate"`
	Tags         map[string]string `json:"tags"`
}

type rawFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

func parseSummary(data []byte) (Summary, error) {
	var raw rawProbe
	if err := json.Unmarshal(data, &raw); err != nil {
		return Summary{}, fmt.Errorf("probe parse: %w", err)
	}

	s := Summary{
		FormatName:      raw.Format.FormatName,
		DurationSeconds: parseFloat(raw.Format.Duration),
		BitRate:         int64(parseFloat(raw.Format.BitRate)),
		Encoder:         tag(raw.Format.Tags, "encoder", "major_brand"),
		CreationTime:    tag(raw.Format.Tags, "creation_time", "date"),
	}

	for _, st := range raw.Streams {
		switch strings.ToLower(st.CodecType) {
		case "video":
			if s.HasVideo {
				continue
			}
			s.HasVideo = true
			s.VideoCodec = st.CodecName
			s.Width = st.Width
			s.Height = st.Height
			s.FPS = parseRate(st.RFrameRate)
			if s.FPS == 0 {
				s.FPS = parseRate(st.AvgFrameRate)
			}
			if s.DurationSeconds == 0 {
				s.DurationSeconds = parseFloat(st.Duration)
			}
		case "audio":
			if s.HasAudio {
				continue
			}
			s.HasAudio = true
			s.AudioCodec = st.CodecName
		}
	}
	return s, nil
}

func parsePackets(data []byte) ([]Packet, error) {
	var raw struct {
		Packets []struct {
			PTSTime string `json:"pts_time"`
			Size    string `json:"size"`
		} `json:"packets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("probe parse: %w", err)
	}

	packets := make([]Packet, 0, len(raw.Packets))
	for _, p := range raw.Packets {
		packets = append(packets, Packet{
			PTS:  parseFloat(p.PTSTime),
			Size: int64(parseFloat(p.Size)),
		})
	}
	return packets, nil
}

func tag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// parseRate converts an ffprobe rational like "30000/1001" to a float.
func parseRate(r string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(r), "/")
	if !ok {
		return parseFloat(r)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || v == "N/A" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
