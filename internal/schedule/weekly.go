package schedule

import (
	"encoding/json"
	"fmt"
	"slices"

	"clinic-reservation-backend/internal/week"
)

// DefaultDays and DefaultTimes describe the grid when nothing else is configured.
var (
	DefaultDays  = []week.Day{week.Mon, week.Tue, week.Wed, week.Thu, week.Fri}
	DefaultTimes = []string{"18:00", "19:00", "20:00", "21:00"}
)

// WeeklySchedule is the dense day -> time -> slot grid.
type WeeklySchedule struct {
	Days  []week.Day
	Times []string
	slots map[week.Day]map[string]*Slot
}

// NewWeeklySchedule builds a grid where every (day, time) pair holds an
// empty placeholder slot.
func NewWeeklySchedule(days []week.Day, times []string) WeeklySchedule {
	ws := WeeklySchedule{
		Days:  append([]week.Day(nil), days...),
		Times: append([]string(nil), times...),
		slots: make(map[week.Day]map[string]*Slot, len(days)),
	}
	ws.fill()
	return ws
}

func (ws *WeeklySchedule) fill() {
	if ws.slots == nil {
		ws.slots = make(map[week.Day]map[string]*Slot, len(ws.Days))
	}
	for _, d := range ws.Days {
		if ws.slots[d] == nil {
			ws.slots[d] = make(map[string]*Slot, len(ws.Times))
		}
		for _, t := range ws.Times {
			if ws.slots[d][t] == nil {
				ws.slots[d][t] = &Slot{Day: d, Time: t}
			}
		}
	}
}

// Put stores slot in its (day, time) cell. The cell must belong to the grid.
func (ws *WeeklySchedule) Put(slot Slot) error {
	row, ok := ws.slots[slot.Day]
	if !ok {
		return fmt.Errorf("day %q is not part of the schedule", slot.Day)
	}
	if _, ok := row[slot.Time]; !ok {
		return fmt.Errorf("time %q is not part of the schedule", slot.Time)
	}
	row[slot.Time] = slot.clone()
	return nil
}

// Slot returns the cell at (day, time).
func (ws WeeklySchedule) Slot(day week.Day, time string) (Slot, bool) {
	s := ws.slot(day, time)
	if s == nil {
		return Slot{}, false
	}
	return *s.clone(), true
}

func (ws WeeklySchedule) slot(day week.Day, time string) *Slot {
	row, ok := ws.slots[day]
	if !ok {
		return nil
	}
	return row[time]
}

// Slots returns every cell in day then time order.
func (ws WeeklySchedule) Slots() []Slot {
	out := make([]Slot, 0, len(ws.Days)*len(ws.Times))
	for _, d := range ws.Days {
		for _, t := range ws.Times {
			if s := ws.slot(d, t); s != nil {
				out = append(out, *s.clone())
			}
		}
	}
	return out
}

// FindClinic returns the slot backed by clinicID.
func (ws WeeklySchedule) FindClinic(clinicID int64) (Slot, bool) {
	for _, s := range ws.Slots() {
		if s.ClinicID != nil && *s.ClinicID == clinicID {
			return s, true
		}
	}
	return Slot{}, false
}

// TotalClinics counts the cells backed by a clinic.
func (ws WeeklySchedule) TotalClinics() int {
	n := 0
	for _, s := range ws.Slots() {
		if s.Bookable() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the grid.
func (ws WeeklySchedule) Clone() WeeklySchedule {
	c := WeeklySchedule{
		Days:  append([]week.Day(nil), ws.Days...),
		Times: append([]string(nil), ws.Times...),
		slots: make(map[week.Day]map[string]*Slot, len(ws.slots)),
	}
	for d, row := range ws.slots {
		c.slots[d] = make(map[string]*Slot, len(row))
		for t, s := range row {
			c.slots[d][t] = s.clone()
		}
	}
	return c
}

type weeklyJSON struct {
	Schedule     map[week.Day]map[string]Slot `json:"schedule"`
	Days         []week.Day                   `json:"days"`
	Times        []string                     `json:"times"`
	TotalClinics int                          `json:"total_clinics"`
}

// MarshalJSON emits {schedule, days, times, total_clinics}.
func (ws WeeklySchedule) MarshalJSON() ([]byte, error) {
	out := weeklyJSON{
		Schedule:     make(map[week.Day]map[string]Slot, len(ws.Days)),
		Days:         ws.Days,
		Times:        ws.Times,
		TotalClinics: ws.TotalClinics(),
	}
	for _, d := range ws.Days {
		out.Schedule[d] = make(map[string]Slot, len(ws.Times))
		for _, t := range ws.Times {
			if s := ws.slot(d, t); s != nil {
				out.Schedule[d][t] = *s
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a grid and fills any missing cell with a placeholder.
func (ws *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var raw weeklyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ws.Days = raw.Days
	ws.Times = raw.Times
	if len(ws.Days) == 0 {
		ws.Days = append([]week.Day(nil), DefaultDays...)
	}
	if len(ws.Times) == 0 {
		ws.Times = append([]string(nil), DefaultTimes...)
	}
	for d, row := range raw.Schedule {
		if !d.Valid() {
			return fmt.Errorf("unknown day %q in schedule", d)
		}
		if !slices.Contains(ws.Days, d) {
			ws.Days = append(ws.Days, d)
		}
		for t := range row {
			if !slices.Contains(ws.Times, t) {
				ws.Times = append(ws.Times, t)
			}
		}
	}
	ws.slots = nil
	ws.fill()
	for d, row := range raw.Schedule {
		for t, s := range row {
			s.Day = d
			s.Time = t
			ws.slots[d][t] = s.clone()
		}
	}
	return nil
}
