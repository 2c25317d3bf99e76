package schedule

import (
	"encoding/json"
	"fmt"

	"clinic-reservation-backend/internal/week"
)

// Occupant is a student holding an active reservation in a slot.
type Occupant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Counts are the derived occupancy figures of a slot.
type Counts struct {
	Current   int
	Remaining int
	Full      bool
}

// CountsFor derives the occupancy figures from a capacity and occupant count.
func CountsFor(capacity, occupants int) Counts {
	remaining := capacity - occupants
	if remaining < 0 {
		remaining = 0
	}
	return Counts{
		Current:   occupants,
		Remaining: remaining,
		Full:      occupants >= capacity,
	}
}

// Slot is one (day, time) cell of the weekly grid. A slot without a
// ClinicID is a placeholder and can never be booked.
type Slot struct {
	Day         week.Day
	Time        string
	ClinicID    *int64
	TeacherName string
	Subject     string
	Room        string
	Capacity    int
	Occupants   []Occupant
}

// Bookable reports whether the slot is backed by a clinic.
func (s *Slot) Bookable() bool {
	return s.ClinicID != nil
}

// Counts returns the derived occupancy figures for the slot.
func (s *Slot) Counts() Counts {
	return CountsFor(s.Capacity, len(s.Occupants))
}

// IndexOf returns the position of studentID among the occupants, or -1.
func (s *Slot) IndexOf(studentID int64) int {
	for i, o := range s.Occupants {
		if o.ID == studentID {
			return i
		}
	}
	return -1
}

// HasOccupant reports whether studentID occupies the slot.
func (s *Slot) HasOccupant(studentID int64) bool {
	return s.IndexOf(studentID) >= 0
}

// Key identifies the slot within the grid, e.g. "wed 19:00".
func (s *Slot) Key() string {
	return fmt.Sprintf("%s %s", s.Day, s.Time)
}

func (s *Slot) clone() *Slot {
	c := *s
	if s.ClinicID != nil {
		id := *s.ClinicID
		c.ClinicID = &id
	}
	c.Occupants = append([]Occupant(nil), s.Occupants...)
	return &c
}

type slotJSON struct {
	ClinicID       *int64     `json:"clinic_id"`
	TeacherName    string     `json:"teacher_name"`
	Subject        string     `json:"subject"`
	Room           string     `json:"room"`
	Capacity       int        `json:"capacity"`
	CurrentCount   int        `json:"current_count"`
	RemainingSpots int        `json:"remaining_spots"`
	IsFull         bool       `json:"is_full"`
	Students       []Occupant `json:"students"`
}

// MarshalJSON emits the slot with its derived counts.
func (s Slot) MarshalJSON() ([]byte, error) {
	counts := s.Counts()
	students := s.Occupants
	if students == nil {
		students = []Occupant{}
	}
	return json.Marshal(slotJSON{
		ClinicID:       s.ClinicID,
		TeacherName:    s.TeacherName,
		Subject:        s.Subject,
		Room:           s.Room,
		Capacity:       s.Capacity,
		CurrentCount:   counts.Current,
		RemainingSpots: counts.Remaining,
		IsFull:         counts.Full,
		Students:       students,
	})
}

// UnmarshalJSON reads a slot; derived counts in the payload are ignored.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var raw slotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ClinicID = raw.ClinicID
	s.TeacherName = raw.TeacherName
	s.Subject = raw.Subject
	s.Room = raw.Room
	s.Capacity = raw.Capacity
	s.Occupants = raw.Students
	return nil
}
