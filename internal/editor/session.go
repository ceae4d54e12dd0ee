// Package editor serialises every timeline and mark operation the way a
// UI event loop would, and routes range-control edits back into the store.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"

	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

var ErrNoMedia = errors.New("no media loaded")

// Media describes the loaded file.
type Media struct {
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	DurationMs float64 `json:"duration_ms"`
}

type State struct {
	Media    *Media            `json:"media,omitempty"`
	Selected marks.ID          `json:"selected,omitempty"`
	Range    timeline.Snapshot `json:"range"`
	Marks    int               `json:"marks"`
}

type Session struct {
	mu       sync.Mutex
	ctrl     *timeline.Controller
	store    *marks.Store
	media    *Media
	selected marks.ID
	logger   *slog.Logger

	// updateErr holds a store failure raised inside a controller
	// notification so Edit can return it.
	updateErr error
}

func NewSession(ctrl *timeline.Controller, store *marks.Store, logger *slog.Logger) *Session {
	s := &Session{
		ctrl:   ctrl,
		store:  store,
		logger: logger,
	}
	ctrl.Subscribe(s.onRangeChange)
	return s
}

// LoadMedia sets the extent to [0, durationMs] and drops any selection.
func (s *Session) LoadMedia(path string, durationMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.SetExtent(0, durationMs); err != nil {
		return err
	}
	s.media = &Media{Path: path, Name: filepath.Base(path), DurationMs: durationMs}
	s.selected = ""
	s.logger.Info("media loaded", "name", s.media.Name, "duration_ms", durationMs)
	return nil
}

// UpdateDuration replaces the extent when the player learns the real
// duration of the loaded media. Sub-millisecond differences are ignored.
func (s *Session) UpdateDuration(durationMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.media == nil {
		return ErrNoMedia
	}
	if math.Abs(s.media.DurationMs-durationMs) < 1 {
		return nil
	}
	if err := s.ctrl.SetExtent(0, durationMs); err != nil {
		return err
	}
	s.media.DurationMs = durationMs
	s.selected = ""
	s.logger.Info("media duration updated", "duration_ms", durationMs)
	return nil
}

func (s *Session) Media() (Media, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.media == nil {
		return Media{}, false
	}
	return *s.media, true
}

// Select makes the mark the active selection and bounds the range control
// around it. The previous selection is dropped first.
func (s *Session) Select(id marks.ID) (timeline.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.media == nil {
		return timeline.Snapshot{}, ErrNoMedia
	}
	m, err := s.store.Get(id)
	if err != nil {
		return timeline.Snapshot{}, err
	}

	s.ctrl.Reset()
	s.selected = ""
	if err := s.ctrl.Activate(m.Interval); err != nil {
		return timeline.Snapshot{}, fmt.Errorf("activate mark %s: %w", id, err)
	}
	s.selected = id
	s.logger.Debug("mark selected", "mark_id", string(id), "interval", m.Interval.String())
	return s.ctrl.Snapshot(), nil
}

func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.Reset()
	s.selected = ""
}

// Edit forwards a handle movement to the controller. Changed bounds are
// written to the selected mark.
func (s *Session) Edit(iv timeline.Interval) (timeline.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit(iv)
}

func (s *Session) edit(iv timeline.Interval) (timeline.Snapshot, error) {
	s.updateErr = nil
	if err := s.ctrl.OnUserEdit(iv); err != nil {
		return s.ctrl.Snapshot(), err
	}
	if err := s.updateErr; err != nil {
		s.updateErr = nil
		return s.ctrl.Snapshot(), err
	}
	return s.ctrl.Snapshot(), nil
}

// EditBounds moves one or both handles. A nil bound keeps the value the
// control currently shows.
func (s *Session) EditBounds(start, end *float64) (timeline.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iv := s.ctrl.Interval()
	if start != nil {
		iv.Start = *start
	}
	if end != nil {
		iv.End = *end
	}
	return s.edit(iv)
}

func (s *Session) Selected() (marks.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Selected: s.selected,
		Range:    s.ctrl.Snapshot(),
		Marks:    s.store.Len(),
	}
	if s.media != nil {
		m := *s.media
		st.Media = &m
	}
	return st
}

// onRangeChange runs inside Edit with s.mu held. Both bounds are already
// committed when it fires, so the mark takes the controller's interval
// rather than the intermediate one carried by a start change.
func (s *Session) onRangeChange(ch timeline.Change) {
	if s.selected == "" {
		return
	}
	if err := s.store.UpdateMark(s.selected, s.ctrl.Interval()); err != nil {
		s.logger.Warn("failed to apply range change", "mark_id", string(s.selected), "error", err)
		s.updateErr = err
		return
	}
	s.logger.Debug("mark range changed",
		"mark_id", string(s.selected),
		"change", ch.Kind.String(),
		"value_ms", ch.Value,
	)
}
