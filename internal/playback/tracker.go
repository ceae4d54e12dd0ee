// Package playback tracks the player state reported by the front end and
// streams the loaded media back to it. The agent never drives playback.
package playback

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether marks may be stamped in this state.
func (s State) Active() bool {
	return s == StatePlaying || s == StatePaused
}

func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stopped", "":
		return StateStopped, nil
	case "playing":
		return StatePlaying, nil
	case "paused":
		return StatePaused, nil
	case "error":
		return StateError, nil
	default:
		return StateStopped, fmt.Errorf("unknown playback state %q", s)
	}
}

// Adapter is the read side of the player consumed by mark creation.
type Adapter interface {
	CurrentPositionMs() float64
	State() State
}

// Report is one position/state update from the player.
type Report struct {
	State      State
	PositionMs float64
	DurationMs float64
}

// Tracker holds the last reported player state and notifies listeners
// when the state or the media duration changes.
type Tracker struct {
	mu       sync.RWMutex
	state    State
	position float64
	duration float64
	errMsg   string

	onState    []func(State)
	onDuration []func(float64)

	logger *slog.Logger
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

func (t *Tracker) CurrentPositionMs() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Tracker) DurationMs() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.duration
}

func (t *Tracker) LastError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errMsg
}

func (t *Tracker) OnStateChange(fn func(State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onState = append(t.onState, fn)
}

func (t *Tracker) OnDurationChange(fn func(float64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDuration = append(t.onDuration, fn)
}

// Update records a report. A zero or negative duration leaves the known
// duration untouched.
func (t *Tracker) Update(r Report) error {
	if r.PositionMs < 0 {
		return fmt.Errorf("position must be >= 0, got %g", r.PositionMs)
	}

	t.mu.Lock()
	stateChanged := r.State != t.state
	durationChanged := r.DurationMs > 0 && r.DurationMs != t.duration

	t.state = r.State
	t.position = r.PositionMs
	if durationChanged {
		t.duration = r.DurationMs
	}
	if r.State != StateError {
		t.errMsg = ""
	}
	onState := t.onState
	onDuration := t.onDuration
	t.mu.Unlock()

	if stateChanged {
		if t.logger != nil {
			t.logger.Debug("playback state changed", "state", r.State.String(), "position_ms", r.PositionMs)
		}
		for _, fn := range onState {
			fn(r.State)
		}
	}
	if durationChanged {
		for _, fn := range onDuration {
			fn(r.DurationMs)
		}
	}
	return nil
}

// Fail moves the tracker into the error state with a message for the status
// line.
func (t *Tracker) Fail(msg string) {
	t.mu.Lock()
	changed := t.state != StateError
	t.state = StateError
	t.errMsg = msg
	onState := t.onState
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.Warn("playback error reported", "error", msg)
	}
	if changed {
		for _, fn := range onState {
			fn(StateError)
		}
	}
}

// Stop resets the tracker when media is unloaded or replaced.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.state = StateStopped
	t.position = 0
	t.duration = 0
	t.errMsg = ""
	t.mu.Unlock()
}
