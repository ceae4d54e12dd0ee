// Package marks keeps the ordered collection of labelled marks stamped on
// the timeline. Insertion order is export order.
package marks

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tofu/tofu-labeller/internal/timeline"
)

var ErrUnknownMark = errors.New("unknown mark")

type ID string

type Mark struct {
	ID        ID                `json:"id"`
	Label     string            `json:"label"`
	Interval  timeline.Interval `json:"interval"`
	CreatedAt time.Time         `json:"created_at"`
}

// Row is one exported record. Times stay in milliseconds; unit conversion
// belongs to the writer.
type Row struct {
	Label string
	Start float64
	End   float64
}

type EventType int

const (
	EventCreated EventType = iota
	EventUpdated
)

type Event struct {
	Type  EventType
	Mark  Mark
	Index int
}

type Store struct {
	mu    sync.RWMutex
	marks []Mark
	index map[ID]int

	obsMu     sync.Mutex
	observers []func(Event)

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		index: make(map[ID]int),
		now:   time.Now,
	}
}

// CreateMark appends a point mark at timestamp and returns its id.
func (s *Store) CreateMark(label string, timestamp float64) ID {
	m := Mark{
		ID:        ID(uuid.NewString()),
		Label:     label,
		Interval:  timeline.Point(timestamp),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	idx := len(s.marks)
	s.marks = append(s.marks, m)
	s.index[m.ID] = idx
	s.mu.Unlock()

	s.emit(Event{Type: EventCreated, Mark: m, Index: idx})
	return m.ID
}

// UpdateMark replaces the interval of an existing mark, keeping its label
// and position.
func (s *Store) UpdateMark(id ID, iv timeline.Interval) error {
	if !iv.Valid() {
		return fmt.Errorf("%w: %s", timeline.ErrInvalidInterval, iv)
	}

	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownMark, id)
	}
	s.marks[idx].Interval = iv
	m := s.marks[idx]
	s.mu.Unlock()

	s.emit(Event{Type: EventUpdated, Mark: m, Index: idx})
	return nil
}

func (s *Store) Get(id ID) (Mark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return Mark{}, fmt.Errorf("%w: %s", ErrUnknownMark, id)
	}
	return s.marks[idx], nil
}

// List returns a copy of all marks in insertion order.
func (s *Store) List() []Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Mark, len(s.marks))
	copy(out, s.marks)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marks)
}

// Rows yields one row per mark in insertion order. Each iteration reads
// the marks present when it starts, so the sequence can be ranged over any
// number of times.
func (s *Store) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, m := range s.List() {
			if !yield(Row{Label: m.Label, Start: m.Interval.Start, End: m.Interval.End}) {
				return
			}
		}
	}
}

// Subscribe registers fn for create/update events. Observers run on the
// caller's goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) emit(ev Event) {
	s.obsMu.Lock()
	observers := s.observers
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}
