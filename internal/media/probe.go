// Package media probes loaded media files for the facts the timeline needs,
// chiefly the duration that becomes the global extent.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

const maxStderrBytes = 4 * 1024

var ErrProbeUnavailable = errors.New("media probe unavailable")

type Prober interface {
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)
}

type ProbeResult struct {
	DurationMs float64
	Width      int
	Height     int
	Codec      string
	FrameRate  float64
}

// FFprobe runs the ffprobe binary as a subprocess.
type FFprobe struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewFFprobe resolves the ffprobe binary. An empty path searches PATH.
func NewFFprobe(path string, timeout time.Duration, logger *slog.Logger) (*FFprobe, error) {
	if path == "" {
		path = "ffprobe"
	}
	bin, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrProbeUnavailable, path, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFprobe{binary: bin, timeout: timeout, logger: logger}, nil
}

func (f *FFprobe) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("cannot stat media: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderr, limit: maxStderrBytes})

	start := time.Now()
	if err := cmd.Run(); err != nil {
		f.logger.Warn("ffprobe failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr_tail", stderr.String(),
		)
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	res, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	f.logger.Debug("ffprobe complete",
		"duration_ms", res.DurationMs,
		"codec", res.Codec,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	res := &ProbeResult{}
	durationStr := out.Format.Duration
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		res.Codec = s.CodecName
		res.Width = s.Width
		res.Height = s.Height
		res.FrameRate = parseRational(s.AvgFrameRate)
		if durationStr == "" {
			durationStr = s.Duration
		}
		break
	}

	if durationStr == "" {
		return nil, fmt.Errorf("ffprobe reported no duration")
	}
	secs, err := strconv.ParseFloat(durationStr, 64)
	if err != nil || secs < 0 {
		return nil, fmt.Errorf("invalid duration %q", durationStr)
	}
	res.DurationMs = secs * 1000
	return res, nil
}

// parseRational parses ffprobe rates such as "30000/1001".
func parseRational(s string) float64 {
	var num, den float64
	if n, _ := fmt.Sscanf(s, "%g/%g", &num, &den); n == 2 && den != 0 {
		return num / den
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// StubProber is used when ffprobe is not installed. Duration then has to
// come from the front end's player.
type StubProber struct {
	logger *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{logger: logger}
}

func (p *StubProber) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	p.logger.Info("probe stub: ffprobe not available", "path", filePath)
	return nil, ErrProbeUnavailable
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
