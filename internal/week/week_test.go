package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-10 is a Monday.
func at(day, hour, minute, second int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, second, 0, time.UTC)
}

func TestParseDay(t *testing.T) {
	testCases := []struct {
		raw       string
		expected  Day
		expectErr bool
	}{
		{raw: "wed", expected: Wed},
		{raw: " Wednesday ", expected: Wed},
		{raw: "수요일", expected: Wed},
		{raw: "수", expected: Wed},
		{raw: "SUN", expected: Sun},
		{raw: "someday", expectErr: true},
		{raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			d, err := ParseDay(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestDayOrderAndLabels(t *testing.T) {
	for i, d := range AllDays() {
		assert.Equal(t, i, d.Order())
		assert.True(t, d.Valid())
		assert.NotEmpty(t, d.Label())
		assert.NotEmpty(t, d.KoreanLabel())
	}
	assert.Equal(t, -1, Day("xyz").Order())
	assert.False(t, Day("xyz").Valid())
}

func TestCurrentDayOrder(t *testing.T) {
	testCases := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{name: "monday opens the whole week", now: at(10, 9, 0, 0), expected: 0},
		{name: "tuesday", now: at(11, 9, 0, 0), expected: 1},
		{name: "wednesday", now: at(12, 23, 59, 59), expected: 2},
		{name: "saturday", now: at(15, 0, 0, 0), expected: 5},
		{name: "sunday", now: at(16, 12, 0, 0), expected: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CurrentDayOrder(tc.now))
		})
	}
}

func TestIsPast(t *testing.T) {
	wednesday := at(12, 10, 0, 0)
	assert.True(t, IsPast(Mon, wednesday))
	assert.True(t, IsPast(Tue, wednesday))
	assert.False(t, IsPast(Wed, wednesday))
	assert.False(t, IsPast(Thu, wednesday))
	assert.False(t, IsPast(Fri, wednesday))

	monday := at(10, 10, 0, 0)
	for _, d := range AllDays() {
		assert.False(t, IsPast(d, monday), d)
	}
}

func TestWeekStartAndDateOf(t *testing.T) {
	sunday := at(16, 18, 30, 0)
	assert.Equal(t, at(10, 0, 0, 0), WeekStart(sunday))
	assert.Equal(t, at(10, 0, 0, 0), WeekStart(at(10, 0, 0, 0)))
	assert.Equal(t, at(12, 0, 0, 0), DateOf(Wed, sunday))
	assert.Equal(t, at(16, 0, 0, 0), DateOf(Sun, at(11, 0, 0, 0)))
}

func TestInWeek(t *testing.T) {
	now := at(12, 10, 0, 0)
	assert.True(t, InWeek(at(10, 0, 0, 0), now))
	assert.True(t, InWeek(at(16, 23, 0, 0), now))
	assert.False(t, InWeek(at(9, 23, 59, 59), now))
	assert.False(t, InWeek(at(17, 0, 0, 0), now))
}

func TestTimeUntilNextMonday(t *testing.T) {
	testCases := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{name: "exactly on the boundary", now: at(17, 0, 0, 0), expected: "00:00:00"},
		{name: "one second before", now: at(16, 23, 59, 59), expected: "00:00:01"},
		{name: "saturday midnight is not wrapped", now: at(15, 0, 0, 0), expected: "48:00:00"},
		{name: "one second after the boundary", now: at(10, 0, 0, 1), expected: "167:59:59"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatCountdown(TimeUntilNextMonday(tc.now)))
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatCountdown(-5*time.Second))
	assert.Equal(t, "00:00:00", FormatCountdown(999*time.Millisecond))
	assert.Equal(t, "01:02:03", FormatCountdown(time.Hour+2*time.Minute+3*time.Second))
}
