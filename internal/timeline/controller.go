package timeline

import (
	"fmt"
	"math"
)

// Neutral state pushed to the range control while nothing is selected.
var (
	disabledInterval = Interval{Start: 0, End: 0}
	disabledWindow   = EditWindow{RangeMin: 0, RangeMax: 100}
	defaultExtent    = Extent{Min: 0, Max: 100}
)

// RangeControl is the two-handle range widget driven by the controller.
type RangeControl interface {
	SetBounds(w EditWindow)
	SetValues(iv Interval)
	SetEnabled(enabled bool)
}

type ChangeKind int

const (
	StartChanged ChangeKind = iota
	EndChanged
)

func (k ChangeKind) String() string {
	switch k {
	case StartChanged:
		return "start_changed"
	case EndChanged:
		return "end_changed"
	default:
		return "unknown"
	}
}

// Change is emitted once per bound moved by a user edit.
type Change struct {
	Kind     ChangeKind
	Value    float64
	Interval Interval
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Extent   Extent     `json:"extent"`
	Interval Interval   `json:"interval"`
	Window   EditWindow `json:"window"`
	Enabled  bool       `json:"enabled"`
}

// Controller is the single authority over the interval being edited and
// the bounds exposed to the range control. It is not safe for concurrent
// use; callers serialise access the way a UI event loop would.
type Controller struct {
	spacing  float64
	control  RangeControl
	extent   Extent
	interval Interval
	window   EditWindow
	enabled  bool

	// busy is set while the controller writes to the control or dispatches
	// notifications. Edits arriving in that span are echoes and are dropped.
	// Nested writes restore the outer value on return.
	busy bool

	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(Change)
}

// NewController creates a disabled controller over the default extent.
// A nil control is allowed.
func NewController(spacing float64, control RangeControl) (*Controller, error) {
	if spacing < 0 || math.IsNaN(spacing) {
		return nil, fmt.Errorf("spacing must be >= 0, got %g", spacing)
	}
	if control == nil {
		control = nopControl{}
	}
	c := &Controller{
		spacing: spacing,
		control: control,
		extent:  defaultExtent,
	}
	c.Reset()
	return c, nil
}

// Reset clears the selection and disables editing.
func (c *Controller) Reset() {
	c.interval = disabledInterval
	c.window = disabledWindow
	c.enabled = false
	c.push()
}

// SetExtent replaces the global extent and resets the controller. The
// window is never carried across extent changes.
func (c *Controller) SetExtent(minMs, maxMs float64) error {
	ext := Extent{Min: minMs, Max: maxMs}
	if !ext.Valid() {
		return fmt.Errorf("%w: min %g > max %g", ErrInvalidExtent, minMs, maxMs)
	}
	c.extent = ext
	c.Reset()
	return nil
}

// Activate makes iv the interval under edit and recomputes its window.
func (c *Controller) Activate(iv Interval) error {
	if !iv.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	if !c.extent.Contains(iv) {
		return fmt.Errorf("%w: %s not in [%g, %g]", ErrOutsideExtent, iv, c.extent.Min, c.extent.Max)
	}
	w, err := ComputeWindow(iv, c.extent, c.spacing)
	if err != nil {
		return err
	}
	c.interval = iv
	c.window = w
	c.enabled = true
	c.push()
	return nil
}

// OnUserEdit applies a handle movement from the range control. Bounds are
// compared as truncated integers; a moved bound is committed before its
// Change is emitted. Start is handled before end.
func (c *Controller) OnUserEdit(iv Interval) error {
	if c.busy {
		return nil
	}
	if !c.enabled {
		return ErrNoActiveSelection
	}

	next := Interval{Start: math.Trunc(iv.Start), End: math.Trunc(iv.End)}
	if !next.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, next)
	}
	// The window is derived from the raw mark interval, so its bounds are
	// truncated the same way as the handles.
	lo, hi := math.Trunc(c.window.RangeMin), math.Trunc(c.window.RangeMax)
	if next.Start < lo || next.End > hi {
		return fmt.Errorf("%w: %s not in [%g, %g]", ErrOutsideWindow, next, c.window.RangeMin, c.window.RangeMax)
	}

	var changes []Change
	if next.Start != math.Trunc(c.interval.Start) {
		c.interval.Start = next.Start
		changes = append(changes, Change{Kind: StartChanged, Value: next.Start, Interval: c.interval})
	}
	if next.End != math.Trunc(c.interval.End) {
		c.interval.End = next.End
		changes = append(changes, Change{Kind: EndChanged, Value: next.End, Interval: c.interval})
	}

	c.notify(changes)
	return nil
}

// Subscribe registers fn for change notifications. The returned func
// removes it.
func (c *Controller) Subscribe(fn func(Change)) func() {
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Extent:   c.extent,
		Interval: c.interval,
		Window:   c.window,
		Enabled:  c.enabled,
	}
}

func (c *Controller) Extent() Extent { return c.extent }

func (c *Controller) Interval() Interval { return c.interval }

func (c *Controller) Window() EditWindow { return c.window }

func (c *Controller) Enabled() bool { return c.enabled }

func (c *Controller) Spacing() float64 { return c.spacing }

func (c *Controller) push() {
	prev := c.busy
	c.busy = true
	defer func() { c.busy = prev }()

	c.control.SetBounds(c.window)
	c.control.SetValues(c.interval)
	c.control.SetEnabled(c.enabled)
}

func (c *Controller) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	prev := c.busy
	c.busy = true
	defer func() { c.busy = prev }()

	for _, ch := range changes {
		for _, l := range c.listeners {
			l.fn(ch)
		}
	}
}

type nopControl struct{}

func (nopControl) SetBounds(EditWindow) {}
func (nopControl) SetValues(Interval)   {}
func (nopControl) SetEnabled(bool)      {}
