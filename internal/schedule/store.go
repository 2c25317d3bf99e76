package schedule

import (
	"errors"
	"sync"

	"clinic-reservation-backend/internal/week"
)

var (
	// ErrSlotBusy is returned when an operation on the slot is still unresolved.
	ErrSlotBusy = errors.New("slot has an operation in flight")
	// ErrSlotNotFound is returned for a (day, time) outside the grid.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrAlreadyOccupant is returned when adding a student already in the slot.
	ErrAlreadyOccupant = errors.New("student already occupies the slot")
	// ErrNotOccupant is returned when removing a student not in the slot.
	ErrNotOccupant = errors.New("student does not occupy the slot")
	// ErrTxnClosed is returned when a committed or rolled back txn is reused.
	ErrTxnClosed = errors.New("transaction already closed")
)

type slotKey struct {
	day  week.Day
	time string
}

// Store owns the locally known weekly grid. Occupant changes go through a
// Txn so each one can be undone; at most one Txn may be open per slot.
type Store struct {
	mu         sync.RWMutex
	grid       WeeklySchedule
	generation uint64
	inFlight   map[slotKey]struct{}
}

// NewStore creates a store seeded with ws.
func NewStore(ws WeeklySchedule) *Store {
	return &Store{
		grid:     ws.Clone(),
		inFlight: make(map[slotKey]struct{}),
	}
}

// Snapshot returns a deep copy of the current grid.
func (s *Store) Snapshot() WeeklySchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Clone()
}

// Slot returns a copy of the cell at (day, time).
func (s *Store) Slot(day week.Day, time string) (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Slot(day, time)
}

// Replace swaps in a freshly fetched grid. Changes from open txns recorded
// against the previous grid are not reverted on the new one, and are
// replayed onto it only if the txn commits.
func (s *Store) Replace(ws WeeklySchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = ws.Clone()
	s.generation++
}

// InFlight reports whether a Txn is open on (day, time).
func (s *Store) InFlight(day week.Day, time string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, busy := s.inFlight[slotKey{day, time}]
	return busy
}

// HasOccupantOnDay reports whether studentID occupies any slot on day.
func (s *Store) HasOccupantOnDay(studentID int64, day week.Day) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.grid.Times {
		if slot := s.grid.slot(day, t); slot != nil && slot.HasOccupant(studentID) {
			return true
		}
	}
	return false
}

// OccupiedSlots returns the slots studentID currently occupies.
func (s *Store) OccupiedSlots(studentID int64) []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Slot
	for _, slot := range s.grid.Slots() {
		if slot.HasOccupant(studentID) {
			out = append(out, slot)
		}
	}
	return out
}

// Begin opens a Txn on (day, time) and marks the slot in flight until the
// Txn is committed or rolled back.
func (s *Store) Begin(day week.Day, time string) (*Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{day, time}
	if s.grid.slot(day, time) == nil {
		return nil, ErrSlotNotFound
	}
	if _, busy := s.inFlight[key]; busy {
		return nil, ErrSlotBusy
	}
	s.inFlight[key] = struct{}{}
	return &Txn{store: s, key: key}, nil
}

// Txn is an open set of optimistic changes to one slot.
type Txn struct {
	store  *Store
	key    slotKey
	undo   []undoEntry
	closed bool
}

type undoEntry struct {
	generation uint64
	revert     func(*Slot)
	replay     func(*Slot)
}

// Slot returns a copy of the slot as currently seen by the store.
func (t *Txn) Slot() (Slot, bool) {
	return t.store.Slot(t.key.day, t.key.time)
}

// AddOccupant appends o to the slot.
func (t *Txn) AddOccupant(o Occupant) error {
	add := func(slot *Slot) {
		if !slot.HasOccupant(o.ID) {
			slot.Occupants = append(slot.Occupants, o)
		}
	}
	return t.apply(func(slot *Slot) (func(*Slot), func(*Slot), error) {
		if slot.HasOccupant(o.ID) {
			return nil, nil, ErrAlreadyOccupant
		}
		add(slot)
		return func(slot *Slot) {
			if i := slot.IndexOf(o.ID); i >= 0 {
				slot.Occupants = append(slot.Occupants[:i], slot.Occupants[i+1:]...)
			}
		}, add, nil
	})
}

// RemoveOccupant removes studentID from the slot. Undo puts the student back
// at the same position.
func (t *Txn) RemoveOccupant(studentID int64) error {
	remove := func(slot *Slot) {
		if i := slot.IndexOf(studentID); i >= 0 {
			slot.Occupants = append(slot.Occupants[:i], slot.Occupants[i+1:]...)
		}
	}
	return t.apply(func(slot *Slot) (func(*Slot), func(*Slot), error) {
		i := slot.IndexOf(studentID)
		if i < 0 {
			return nil, nil, ErrNotOccupant
		}
		removed := slot.Occupants[i]
		remove(slot)
		return func(slot *Slot) {
			if slot.HasOccupant(removed.ID) {
				return
			}
			at := i
			if at > len(slot.Occupants) {
				at = len(slot.Occupants)
			}
			slot.Occupants = append(slot.Occupants[:at], append([]Occupant{removed}, slot.Occupants[at:]...)...)
		}, remove, nil
	})
}

func (t *Txn) apply(mutate func(*Slot) (undo, replay func(*Slot), err error)) error {
	st := t.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if t.closed {
		return ErrTxnClosed
	}
	slot := st.grid.slot(t.key.day, t.key.time)
	if slot == nil {
		return ErrSlotNotFound
	}
	undo, replay, err := mutate(slot)
	if err != nil {
		return err
	}
	t.undo = append(t.undo, undoEntry{generation: st.generation, revert: undo, replay: replay})
	return nil
}

// Commit keeps the changes and releases the slot. Changes recorded against
// a grid that was replaced while the txn was open are replayed onto the
// current grid, so a confirmed change survives a concurrent refresh. Replay
// is keyed by student id and leaves a grid that already reflects the change
// untouched.
func (t *Txn) Commit() {
	st := t.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if t.closed {
		return
	}
	if slot := st.grid.slot(t.key.day, t.key.time); slot != nil {
		for _, e := range t.undo {
			if e.generation != st.generation {
				e.replay(slot)
			}
		}
	}
	t.release()
}

// Rollback reverts every change made through t in reverse order and
// releases the slot. Changes made against a grid that has since been
// replaced are not replayed onto the fresh one.
func (t *Txn) Rollback() {
	st := t.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if t.closed {
		return
	}
	if slot := st.grid.slot(t.key.day, t.key.time); slot != nil {
		for i := len(t.undo) - 1; i >= 0; i-- {
			if t.undo[i].generation == st.generation {
				t.undo[i].revert(slot)
			}
		}
	}
	t.release()
}

func (t *Txn) release() {
	if t.closed {
		return
	}
	t.closed = true
	t.undo = nil
	delete(t.store.inFlight, t.key)
}
