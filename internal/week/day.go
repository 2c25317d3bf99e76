package week

import (
	"fmt"
	"strings"
	"time"
)

// Day is one of the seven weekday codes used throughout the clinic grid.
type Day string

const (
	Mon Day = "mon"
	Tue Day = "tue"
	Wed Day = "wed"
	Thu Day = "thu"
	Fri Day = "fri"
	Sat Day = "sat"
	Sun Day = "sun"
)

type dayInfo struct {
	order   int
	weekday time.Weekday
	label   string
	korean  string
}

// days is the only place day ordering and labels are defined.
var days = map[Day]dayInfo{
	Mon: {0, time.Monday, "Monday", "월요일"},
	Tue: {1, time.Tuesday, "Tuesday", "화요일"},
	Wed: {2, time.Wednesday, "Wednesday", "수요일"},
	Thu: {3, time.Thursday, "Thursday", "목요일"},
	Fri: {4, time.Friday, "Friday", "금요일"},
	Sat: {5, time.Saturday, "Saturday", "토요일"},
	Sun: {6, time.Sunday, "Sunday", "일요일"},
}

// AllDays returns the seven days in week order, Monday first.
func AllDays() []Day {
	return []Day{Mon, Tue, Wed, Thu, Fri, Sat, Sun}
}

// ParseDay accepts a day code ("wed"), an English name ("Wednesday") or a
// Korean name ("수요일", "수").
func ParseDay(raw string) (Day, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for d, info := range days {
		if s == string(d) || s == strings.ToLower(info.label) {
			return d, nil
		}
		if s == info.korean || s == strings.TrimSuffix(info.korean, "요일") {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", raw)
}

// Valid reports whether d is one of the seven known codes.
func (d Day) Valid() bool {
	_, ok := days[d]
	return ok
}

// Order is the position of d in the week (mon=0 ... sun=6), or -1 if unknown.
func (d Day) Order() int {
	info, ok := days[d]
	if !ok {
		return -1
	}
	return info.order
}

// Label returns the English day name.
func (d Day) Label() string {
	return days[d].label
}

// KoreanLabel returns the Korean day name.
func (d Day) KoreanLabel() string {
	return days[d].korean
}

// FromWeekday maps a time.Weekday onto its Day.
func FromWeekday(wd time.Weekday) Day {
	for d, info := range days {
		if info.weekday == wd {
			return d
		}
	}
	return ""
}
