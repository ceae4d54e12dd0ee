package labels

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/playback"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// MarkCreator is the part of the mark store the dispatcher writes to.
type MarkCreator interface {
	CreateMark(label string, timestamp float64) marks.ID
}

// Dispatcher turns shortcut presses into marks. It holds its collaborators
// directly; there is no process-wide event bus.
type Dispatcher struct {
	registry *Registry
	marks    MarkCreator
	player   playback.Adapter
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, store MarkCreator, player playback.Adapter, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		marks:    store,
		player:   player,
		logger:   logger,
	}
}

// Trigger handles a shortcut press. It returns the new mark id and true
// when a mark was stamped, or false when the player is stopped.
func (d *Dispatcher) Trigger(combo string) (marks.ID, bool, error) {
	label, ok := d.registry.Lookup(combo)
	if !ok {
		if hint, found := d.registry.Suggest(combo); found {
			return "", false, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnboundShortcut, combo, hint)
		}
		return "", false, fmt.Errorf("%w: %s", ErrUnboundShortcut, combo)
	}
	id, created := d.TriggerLabel(label)
	return id, created, nil
}

// TriggerLabel stamps a mark for label at the current position if the
// player is playing or paused.
func (d *Dispatcher) TriggerLabel(label string) (marks.ID, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}

	state := d.player.State()
	if !state.Active() {
		d.logger.Debug("mark ignored, player not active", "label", label, "state", state.String())
		return "", false
	}

	pos := d.player.CurrentPositionMs()
	id := d.marks.CreateMark(label, pos)
	d.logger.Info("mark created", "mark_id", string(id), "label", label, "position_ms", pos)
	return id, true
}

// MarkAt stamps a mark for label at an explicit position. Manual entry does
// not consult the player state.
func (d *Dispatcher) MarkAt(label string, positionMs float64) (marks.ID, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("%w: empty label", ErrInvalidBinding)
	}
	if positionMs < 0 || math.IsNaN(positionMs) || math.IsInf(positionMs, 0) {
		return "", fmt.Errorf("%w: %g", ErrInvalidTimestamp, positionMs)
	}

	id := d.marks.CreateMark(label, positionMs)
	d.logger.Info("mark created", "mark_id", string(id), "label", label, "position_ms", positionMs, "source", "manual")
	return id, nil
}
