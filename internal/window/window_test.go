package window

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute(t *testing.T) {
	// Mid-afternoon so the midnight truncation is actually exercised.
	now := time.Date(2024, time.July, 15, 14, 30, 12, 0, time.UTC)

	tests := []struct {
		name       string
		yearly     bool
		quarterly  bool
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{"monthly", false, false, date(2024, time.July, 1), date(2024, time.July, 16)},
		{"quarterly", false, true, date(2024, time.July, 1), date(2024, time.September, 30)},
		{"yearly", true, false, date(2024, time.January, 1), date(2024, time.July, 16)},
		// Yearly takes precedence when both flags are set.
		{"yearly over quarterly", true, true, date(2024, time.January, 1), date(2024, time.July, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(now, tt.yearly, tt.quarterly)
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

func TestCompute_QuarterBoundaries(t *testing.T) {
	tests := []struct {
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{date(2024, time.January, 1), date(2024, time.January, 1), date(2024, time.March, 31)},
		{date(2024, time.March, 31), date(2024, time.January, 1), date(2024, time.March, 31)},
		{date(2024, time.April, 1), date(2024, time.April, 1), date(2024, time.June, 30)},
		{date(2024, time.December, 25), date(2024, time.October, 1), date(2024, time.December, 31)},
	}

	for _, tt := range tests {
		got := Compute(tt.now, false, true)
		if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
			t.Errorf("Compute(%v, quarterly) = [%v, %v], want [%v, %v]",
				tt.now, got.Start, got.End, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestCompute_MonthlyAcrossYearEnd(t *testing.T) {
	now := time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)
	got := Compute(now, false, false)
	if !got.Start.Equal(date(2024, time.December, 1)) {
		t.Errorf("start = %v", got.Start)
	}
	if !got.End.Equal(date(2025, time.January, 1)) {
		t.Errorf("end = %v", got.End)
	}
}

func TestLookback(t *testing.T) {
	now := time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)

	slack := Lookback(now, 1)
	if !slack.Start.Equal(date(2024, time.July, 14)) || !slack.End.Equal(date(2024, time.July, 16)) {
		t.Errorf("Lookback(now, 1) = [%v, %v]", slack.Start, slack.End)
	}

	teams := Lookback(now, 0)
	if !teams.Start.Equal(date(2024, time.July, 15)) || !teams.End.Equal(date(2024, time.July, 16)) {
		t.Errorf("Lookback(now, 0) = [%v, %v]", teams.Start, teams.End)
	}
}

func TestDay(t *testing.T) {
	got := Day(time.Date(2024, time.January, 2, 17, 45, 3, 0, time.UTC))
	if got.StartTimestamp() != "2024-01-02 00:00:00" {
		t.Errorf("start timestamp = %s", got.StartTimestamp())
	}
	if got.EndTimestamp() != "2024-01-03 00:00:00" {
		t.Errorf("end timestamp = %s", got.EndTimestamp())
	}
}

func TestFormats(t *testing.T) {
	w := Window{Start: date(2024, time.February, 1), End: date(2024, time.February, 29)}
	if w.StartDate() != "2024-02-01" || w.EndDate() != "2024-02-29" {
		t.Errorf("dates = %s, %s", w.StartDate(), w.EndDate())
	}
}
