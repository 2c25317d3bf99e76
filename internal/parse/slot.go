package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"clinic-reservation-backend/internal/week"
)

var (
	slotRe = regexp.MustCompile(`^([^\s\d@]+)\s*@?\s*(.+)$`)
	timeRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?:\s*[-~]\s*\d{1,2}(?::\d{2})?)?$`)
)

// ParseSlot splits a free-form slot label such as "wed 19:00", "wed@19",
// "Wednesday 19:00-20:00" or "수요일 19:00" into a day and a canonical HH:MM
// time. For ranges the start time is kept.
func ParseSlot(raw string) (week.Day, string, error) {
	s := strings.TrimSpace(raw)
	m := slotRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", fmt.Errorf("unable to parse slot: %q", raw)
	}

	day, err := week.ParseDay(m[1])
	if err != nil {
		return "", "", fmt.Errorf("unable to parse slot %q: %w", raw, err)
	}
	t, err := ParseTime(m[2])
	if err != nil {
		return "", "", fmt.Errorf("unable to parse slot %q: %w", raw, err)
	}
	return day, t, nil
}

// ParseTime normalises "19", "9:30" or "19:00-20:00" to "HH:MM".
func ParseTime(raw string) (string, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("invalid time %q", raw)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("time out of range %q", raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
