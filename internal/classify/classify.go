package classify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/week"
)

// Status is a student's display category. Lower values sort first.
type Status int

const (
	Mandatory Status = iota
	Reserved
	Required
	Unrequired
)

var statusNames = map[Status]string{
	Mandatory:  "mandatory",
	Reserved:   "reserved",
	Required:   "required",
	Unrequired: "unrequired",
}

func (s Status) String() string {
	return statusNames[s]
}

// MarshalText lets Status appear by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a status name.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus reads a status name.
func ParseStatus(raw string) (Status, error) {
	for s, name := range statusNames {
		if strings.EqualFold(raw, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", raw)
}

// HasReservationThisWeek reports whether any of reservations is an active
// booking by the student dated inside now's week.
func HasReservationThisWeek(studentID int64, reservations []model.Reservation, now time.Time) bool {
	for _, r := range reservations {
		if r.StudentID != studentID || !r.IsActive {
			continue
		}
		date, err := time.ParseInLocation(week.DateLayout, r.ExpectedClinicDate, now.Location())
		if err != nil {
			continue
		}
		if week.InWeek(date, now) {
			return true
		}
	}
	return false
}

// Classify places s into exactly one category. nonPass wins over an
// existing reservation.
func Classify(s model.Student, reservations []model.Reservation, now time.Time) Status {
	switch {
	case s.NonPass:
		return Mandatory
	case HasReservationThisWeek(s.ID, reservations, now):
		return Reserved
	case s.EssentialClinic:
		return Required
	default:
		return Unrequired
	}
}

// Entry is a classified student.
type Entry struct {
	Student model.Student `json:"student"`
	Status  Status        `json:"status"`
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Search string
	School string
	Grade  string
	Status *Status
}

func (f Filter) match(e Entry) bool {
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.School != "" && e.Student.School != f.School {
		return false
	}
	if f.Grade != "" && e.Student.Grade != f.Grade {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		fields := []string{e.Student.Name, e.Student.Username, e.Student.School, e.Student.Grade}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// List classifies, filters and sorts students: by category, then by name
// in Korean collation order.
func List(students []model.Student, reservations []model.Reservation, now time.Time, f Filter) []Entry {
	entries := make([]Entry, 0, len(students))
	for _, s := range students {
		e := Entry{Student: s, Status: Classify(s, reservations, now)}
		if f.match(e) {
			entries = append(entries, e)
		}
	}

	col := collate.New(language.Korean)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Status != entries[j].Status {
			return entries[i].Status < entries[j].Status
		}
		return col.CompareString(entries[i].Student.Name, entries[j].Student.Name) < 0
	})
	return entries
}

// Group buckets entries by status, preserving order within each bucket.
func Group(entries []Entry) map[Status][]Entry {
	out := make(map[Status][]Entry, len(statusNames))
	for _, e := range entries {
		out[e.Status] = append(out[e.Status], e)
	}
	return out
}
