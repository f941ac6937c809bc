package rotation

import (
	"errors"
	"fmt"
	"time"
)

// periodLayout is the canonical YYYY-MM-DD form used for period starts.
const periodLayout = "2006-01-02"

// ErrInvalidPeriod indicates a period start string is not a valid date.
var ErrInvalidPeriod = errors.New("rotation: invalid period start")

// ErrInvalidTimeOfDay indicates a schedule slot time is not in HH:MM form.
var ErrInvalidTimeOfDay = errors.New("rotation: invalid time of day")

// PeriodStart returns the canonical first day (Monday) of the period
// containing t, truncated to midnight in t's location.
func PeriodStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// Monday == 1 and Sunday == 0 in Go's weekday numbering.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// FormatPeriod renders a period start in its canonical YYYY-MM-DD form.
func FormatPeriod(t time.Time) string {
	return t.Format(periodLayout)
}

// ParsePeriod parses a canonical period start and normalizes it to the
// Monday of its week.
func ParsePeriod(value string) (time.Time, error) {
	parsed, err := time.Parse(periodLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return PeriodStart(parsed), nil
}

// AddPeriods advances a period start by n whole periods.
func AddPeriods(periodStart time.Time, n int) time.Time {
	return periodStart.AddDate(0, 0, 7*n)
}

// ParseTimeOfDay parses an HH:MM schedule slot.
func ParseTimeOfDay(timeOfDay string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, timeOfDay)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, timeOfDay)
	}
	return hour, minute, nil
}

// VisitWindow derives the concrete event window for one rotation: the visit
// day is the period start plus the offset implied by the group's weekday
// relative to Monday, the start time comes from the HH:MM schedule slot and
// the window lasts one hour.
func VisitWindow(periodStart time.Time, weekday time.Weekday, timeOfDay string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	dayOffset := (int(weekday) + 6) % 7
	day := periodStart.AddDate(0, 0, dayOffset)
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return start, start.Add(time.Hour), nil
}
