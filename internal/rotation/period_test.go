package rotation

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday maps to itself", time.Date(2026, 2, 16, 15, 30, 0, 0, time.UTC), "2026-02-16"},
		{"wednesday maps to preceding monday", time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC), "2026-02-16"},
		{"sunday maps to preceding monday", time.Date(2026, 2, 22, 23, 59, 0, 0, time.UTC), "2026-02-16"},
		{"month boundary", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), "2026-02-23"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := FormatPeriod(PeriodStart(tc.in))
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	normalized, err := ParsePeriod("2026-02-18")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatPeriod(normalized) != "2026-02-16" {
		t.Fatalf("got %s, want 2026-02-16", FormatPeriod(normalized))
	}

	if _, err := ParsePeriod("not-a-date"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestAddPeriods(t *testing.T) {
	t.Parallel()

	start, err := ParsePeriod("2026-02-16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := FormatPeriod(AddPeriods(start, 2)); got != "2026-03-02" {
		t.Fatalf("got %s, want 2026-03-02", got)
	}
	if got := FormatPeriod(AddPeriods(start, 0)); got != "2026-02-16" {
		t.Fatalf("got %s, want 2026-02-16", got)
	}
}

func TestVisitWindow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 60*60)
	period := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)

	start, end, err := VisitWindow(period, time.Thursday, "14:30", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2026, 2, 19, 14, 30, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Fatalf("start: got %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(time.Hour)) {
		t.Fatalf("end: got %v, want one hour after start", end)
	}
}

func TestVisitWindow_SundayIsLastDayOfPeriod(t *testing.T) {
	t.Parallel()

	period := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	start, _, err := VisitWindow(period, time.Sunday, "09:00", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 22 {
		t.Fatalf("sunday visit day: got %d, want 22", start.Day())
	}
}

func TestVisitWindow_RejectsMalformedTimeOfDay(t *testing.T) {
	t.Parallel()

	period := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	for _, bad := range []string{"", "25:00", "12:75", "noon"} {
		if _, _, err := VisitWindow(period, time.Monday, bad, time.UTC); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("time %q: expected ErrInvalidTimeOfDay, got %v", bad, err)
		}
	}
}
