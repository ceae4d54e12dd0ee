// Package timeline holds the range arithmetic behind mark editing: the
// global extent of the loaded media, the interval of the mark under edit
// and the bounded edit window exposed to the range control.
//
// All values are milliseconds.
package timeline

import (
	"errors"
	"fmt"
)

// DefaultSpacingMs is the slack added on each side of an active interval.
const DefaultSpacingMs = 3000

var (
	ErrInvalidExtent     = errors.New("invalid extent")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrOutsideExtent     = errors.New("interval outside extent")
	ErrOutsideWindow     = errors.New("interval outside edit window")
	ErrNoActiveSelection = errors.New("no active selection")
)

type Interval struct {
	Start float64 `json:"start_ms"`
	End   float64 `json:"end_ms"`
}

// Point returns the zero-width interval at ts.
func Point(ts float64) Interval {
	return Interval{Start: ts, End: ts}
}

func (i Interval) Valid() bool {
	return i.Start <= i.End
}

func (i Interval) Duration() float64 {
	return i.End - i.Start
}

func (i Interval) String() string {
	return fmt.Sprintf("[%g, %g]", i.Start, i.End)
}

// Extent is the full addressable timeline of the loaded media.
type Extent struct {
	Min float64 `json:"min_ms"`
	Max float64 `json:"max_ms"`
}

func (e Extent) Valid() bool {
	return e.Min <= e.Max
}

// Contains reports whether iv lies entirely inside the extent.
func (e Extent) Contains(iv Interval) bool {
	return e.Min <= iv.Start && iv.End <= e.Max
}

type EditWindow struct {
	RangeMin float64 `json:"range_min_ms"`
	RangeMax float64 `json:"range_max_ms"`
}

func (w EditWindow) Contains(iv Interval) bool {
	return w.RangeMin <= iv.Start && iv.End <= w.RangeMax
}

// ComputeWindow derives the edit window around iv. The extent always wins
// over the spacing, so the result never escapes [ext.Min, ext.Max].
// Negative spacing is treated as zero.
func ComputeWindow(iv Interval, ext Extent, spacing float64) (EditWindow, error) {
	if !ext.Valid() {
		return EditWindow{}, fmt.Errorf("%w: min %g > max %g", ErrInvalidExtent, ext.Min, ext.Max)
	}
	if spacing < 0 {
		spacing = 0
	}

	// The outer clamp only matters for intervals lying outside the extent,
	// where it pins the window to the nearest edge instead of inverting.
	return EditWindow{
		RangeMin: min(max(iv.Start-spacing, ext.Min), ext.Max),
		RangeMax: max(min(iv.End+spacing, ext.Max), ext.Min),
	}, nil
}
