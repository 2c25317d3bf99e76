package week

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for expected clinic dates.
const DateLayout = "2006-01-02"

// CurrentDayOrder returns the day-cutoff for now. Monday is the reset
// boundary, so on Monday every day of the week is still open and the result
// is 0. On any other day it is the order of today (Sunday = 6).
func CurrentDayOrder(now time.Time) int {
	if now.Weekday() == time.Monday {
		return 0
	}
	return FromWeekday(now.Weekday()).Order()
}

// IsPast reports whether d is strictly before today's position in the week.
func IsPast(d Day, now time.Time) bool {
	return d.Order() < CurrentDayOrder(now)
}

// WeekStart returns Monday 00:00:00 of now's week in now's location.
func WeekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, dd := now.Date()
	return time.Date(y, m, dd-offset, 0, 0, 0, 0, now.Location())
}

// DateOf returns midnight of day d inside now's week.
func DateOf(d Day, now time.Time) time.Time {
	return WeekStart(now).AddDate(0, 0, d.Order())
}

// InWeek reports whether date falls within now's Monday-Sunday week.
// Only the calendar date of date is considered.
func InWeek(date, now time.Time) bool {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !day.Before(start) && day.Before(end)
}

// TimeUntilNextMonday returns how long until the next Monday 00:00:00.
// Exactly on the boundary the result is zero; it is never negative.
func TimeUntilNextMonday(now time.Time) time.Duration {
	start := WeekStart(now)
	if now.Equal(start) {
		return 0
	}
	d := start.AddDate(0, 0, 7).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FormatCountdown renders d as HH:MM:SS. Hours are not wrapped into days, so
// two days read "48:00:00". Sub-second remainders are truncated.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
