package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001"}
		],
		"format": {"duration": "12.345000"}
	}`)

	res, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if math.Abs(res.DurationMs-12345) > 1e-6 {
		t.Errorf("DurationMs = %g, want 12345", res.DurationMs)
	}
	if res.Codec != "h264" || res.Width != 1920 || res.Height != 1080 {
		t.Errorf("unexpected stream info: %+v", res)
	}
	if math.Abs(res.FrameRate-29.97) > 0.01 {
		t.Errorf("FrameRate = %g, want ~29.97", res.FrameRate)
	}
}

func TestParseProbeOutput_StreamDurationFallback(t *testing.T) {
	data := []byte(`{"streams": [{"codec_type": "video", "duration": "2.5", "avg_frame_rate": "25"}], "format": {}}`)

	res, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if res.DurationMs != 2500 {
		t.Errorf("DurationMs = %g, want 2500", res.DurationMs)
	}
	if res.FrameRate != 25 {
		t.Errorf("FrameRate = %g, want 25", res.FrameRate)
	}
}

func TestParseProbeOutput_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"no duration", `{"streams": [], "format": {}}`},
		{"bad duration", `{"format": {"duration": "abc"}}`},
		{"negative duration", `{"format": {"duration": "-1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProbeOutput([]byte(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"0/0", 0},
		{"24", 24},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseRational(tt.in); got != tt.want {
			t.Errorf("parseRational(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestStubProber(t *testing.T) {
	p := NewStubProber(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := p.Probe(context.Background(), "/tmp/x.mp4")
	if !errors.Is(err, ErrProbeUnavailable) {
		t.Fatalf("Probe() error = %v, want ErrProbeUnavailable", err)
	}
}

func TestNewFFprobe_MissingBinary(t *testing.T) {
	_, err := NewFFprobe("/definitely/not/ffprobe", 0, nil)
	if !errors.Is(err, ErrProbeUnavailable) {
		t.Fatalf("NewFFprobe() error = %v, want ErrProbeUnavailable", err)
	}
}

func TestLimitedWriter_KeepsTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 4}
	lw.Write([]byte("abc"))
	lw.Write([]byte("defg"))
	if got := buf.String(); got != "defg" {
		t.Fatalf("tail = %q, want %q", got, "defg")
	}
	if !strings.HasSuffix(buf.String(), "g") {
		t.Fatal("tail lost last byte")
	}
}
