// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package probe

import (
	"math"
	"testing"
)

const sampleProbeJSON = `{
  "streams": [
    {
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30000/1001",
      "avg_frame_rate": "30000/1001",
      "duration": "12.512500"
    },
    {
      "codec_name": "aac",
      "codec_type": "audio",
      "bit_rate": "128000"
    }
  ],
  "format": {
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "12.545000",
    "bit_rate": "2503000",
    "tags": {
      "major_brand": "isom",
      "creation_time": "2026-03-01T10:22:05.000000Z"
    }
  }
}`

func TestParseSummary(t *testing.T) {
	s, err := parseSummary([]byte(sampleProbeJSON))
	if err != nil {
		t.Fatalf("parseSummary: %v", err)
	}
	if !s.HasVideo || !s.HasAudio {
		t.Errorf("HasVideo=%v HasAudio=%v, want both true", s.HasVideo, s.HasAudio)
	}
	if s.Width != 1920 || s.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", s.Width, s.Height)
	}
	if math.Abs(s.FPS-29.97) > 0.01 {
		t.Errorf("FPS = %g, want ~29.97 from 30000/1001", s.FPS)
	}
	if math.Abs(s.DurationSeconds-12.545) > 1e-9 {
		t.Errorf("DurationSeconds = %g, want 12.545", s.DurationSeconds)
	}
	if s.BitRate != 2503000 {
		t.Errorf("BitRate = %d, want 2503000", s.BitRate)
	}
	if s.VideoCodec != "h264" || s.AudioCodec != "aac" {
		t.Errorf("codecs = %q/%q, want h264/aac", s.VideoCodec, s.AudioCodec)
	}
	if s.Encoder != "isom" {
		t.Errorf("Encoder = %q, want major_brand fallback", s.Encoder)
	}
	if s.CreationTime == "" {
		t.Error("CreationTime empty, want tag value")
	}
}

func TestParseSummaryNoStreams(t *testing.T) {
	s, err := parseSummary([]byte(`{"format":{"format_name":"mp3","duration":"3.0"}}`))
	if err != nil {
		t.Fatalf("parseSummary: %v", err)
	}
	if s.HasVideo || s.HasAudio {
		t.Error("expected no streams detected")
	}
	if s.Encoder != "" || s.CreationTime != "" {
		t.Error("expected empty tags")
	}
}

func TestParseSummaryInvalidJSON(t *testing.T) {
	if _, err := parseSummary([]byte("<html>not json</html>")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParsePackets(t *testing.T) {
	data := `{"packets":[
	  {"pts_time":"0.000000","size":"24250"},
	  {"pts_time":"0.033367","size":"1024"},
	  {"pts_time":"N/A","size":"512"}
	]}`
	pkts, err := parsePackets([]byte(data))
	if err != nil {
		t.Fatalf("parsePackets: %v", err)
	}
	if len(pkts) != 3 {
		t.Fatalf("got %d packets, want 3", len(pkts))
	}
	if pkts[0].Size != 24250 || pkts[0].PTS != 0 {
		t.Errorf("pkts[0] = %+v", pkts[0])
	}
	if pkts[2].PTS != 0 {
		t.Errorf("N/A pts should parse to 0, got %g", pkts[2].PTS)
	}
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"0/0", 0},
		{"24", 24},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseRate(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("parseRate(%q) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestNewDefaultsBinary(t *testing.T) {
	if p := New("  "); p.binary != "ffprobe" {
		t.Errorf("binary = %q, want ffprobe default", p.binary)
	}
	if p := New("/usr/local/bin/ffprobe"); p.binary != "/usr/local/bin/ffprobe" {
		t.Errorf("binary = %q", p.binary)
	}
}
