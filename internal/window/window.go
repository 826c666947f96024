// Package window computes report date windows from wall-clock time.
// Granularity is always one day; only the span varies.
package window

import "time"

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Window is an inclusive start / exclusive-by-convention end date pair.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartDate renders the start as an ISO calendar date.
func (w Window) StartDate() string { return w.Start.Format(dateLayout) }

// EndDate renders the end as an ISO calendar date.
func (w Window) EndDate() string { return w.End.Format(dateLayout) }

// StartTimestamp renders the start at second precision.
func (w Window) StartTimestamp() string { return w.Start.Format(timestampLayout) }

// EndTimestamp renders the end at second precision.
func (w Window) EndTimestamp() string { return w.End.Format(timestampLayout) }

// Compute selects the report window for now. Yearly wins over quarterly;
// with neither set the window is monthly.
//
//	yearly:    [January 1 of the current year, tomorrow]
//	quarterly: [first day of the current quarter, last day of the current quarter]
//	monthly:   [first day of the current month, tomorrow]
func Compute(now time.Time, yearly, quarterly bool) Window {
	today := midnight(now)
	tomorrow := today.AddDate(0, 0, 1)

	switch {
	case yearly:
		return Window{
			Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
			End:   tomorrow,
		}
	case quarterly:
		quarterStartMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		start := time.Date(now.Year(), quarterStartMonth, 1, 0, 0, 0, 0, now.Location())
		// Last day of the quarter: first day of the next quarter minus one day.
		end := start.AddDate(0, 3, -1)
		return Window{Start: start, End: end}
	default:
		return Window{
			Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
			End:   tomorrow,
		}
	}
}

// Lookback is the notification window: [today minus daysBack, tomorrow].
func Lookback(now time.Time, daysBack int) Window {
	today := midnight(now)
	return Window{
		Start: today.AddDate(0, 0, -daysBack),
		End:   today.AddDate(0, 0, 1),
	}
}

// Day is the midnight-to-midnight sub-window for one backfill day.
func Day(t time.Time) Window {
	start := midnight(t)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
