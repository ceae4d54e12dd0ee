package api

import (
	"time"

	"github.com/tofu/tofu-labeller/internal/editor"
	"github.com/tofu/tofu-labeller/internal/labels"
	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type PlaybackResponse struct {
	State      string  `json:"state"`
	PositionMs float64 `json:"position_ms"`
	DurationMs float64 `json:"duration_ms"`
	LastError  string  `json:"last_error,omitempty"`
}

type StatusResponse struct {
	Media         *editor.Media     `json:"media,omitempty"`
	Playback      PlaybackResponse  `json:"playback"`
	Selected      string            `json:"selected,omitempty"`
	Range         timeline.Snapshot `json:"range"`
	MarksCount    int               `json:"marks_count"`
	BindingsCount int               `json:"bindings_count"`
}

type LoadMediaRequest struct {
	Path       string  `json:"path"`
	DurationMs float64 `json:"duration_ms,omitempty"`
}

type MediaResponse struct {
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	DurationMs float64 `json:"duration_ms"`
	Probed     bool    `json:"probed"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Codec      string  `json:"codec,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
}

type PlaybackRequest struct {
	State      string  `json:"state"`
	PositionMs float64 `json:"position_ms"`
	DurationMs float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type BindingsResponse struct {
	Bindings []labels.Binding `json:"bindings"`
}

type BindingRequest struct {
	Combo string `json:"combo"`
	Label string `json:"label"`
}

type ShortcutRequest struct {
	Combo string `json:"combo,omitempty"`
	Label string `json:"label,omitempty"`
}

type ShortcutResponse struct {
	Created bool   `json:"created"`
	MarkID  string `json:"mark_id,omitempty"`
	Label   string `json:"label,omitempty"`
}

type CreateMarkRequest struct {
	Label       string   `json:"label"`
	TimestampMs *float64 `json:"timestamp_ms,omitempty"`
}

type MarkResponse struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	StartMs   float64 `json:"start_ms"`
	EndMs     float64 `json:"end_ms"`
	CreatedAt string  `json:"created_at"`
}

type MarksResponse struct {
	Marks []MarkResponse `json:"marks"`
}

type SelectionResponse struct {
	MarkID string            `json:"mark_id,omitempty"`
	Mark   *MarkResponse     `json:"mark,omitempty"`
	Range  timeline.Snapshot `json:"range"`
}

type RangeRequest struct {
	StartMs *float64 `json:"start_ms"`
	EndMs   *float64 `json:"end_ms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func MarkToResponse(m marks.Mark) MarkResponse {
	return MarkResponse{
		ID:        string(m.ID),
		Label:     m.Label,
		StartMs:   m.Interval.Start,
		EndMs:     m.Interval.End,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}
