package schedule

import (
	"sort"
	"time"

	"github.com/pillcare/pillcare-backend/internal/types"
)

// NextOccurrences expands a schedule into concrete timestamps relative to ref,
// in ref's location:
//
//   - daily: one occurrence per time, dated ref.
//   - weekly: for each configured weekday, the next date on or after ref
//     matching that weekday (offset 0 means today), one occurrence per time.
//   - interval: a single date ref+IntervalDays, one occurrence per time.
//
// The result is sorted ascending. The generator never looks at existing dose
// logs; skipping already-generated occurrences is the ledger's job.
func NextOccurrences(s *Schedule, ref time.Time) ([]time.Time, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	times := make([]struct{ hour, min int }, 0, len(s.Times))
	for _, t := range s.Times {
		canonical, err := To24Hour(t)
		if err != nil {
			return nil, err
		}
		var h, m int
		h = int(canonical[0]-'0')*10 + int(canonical[1]-'0')
		m = int(canonical[3]-'0')*10 + int(canonical[4]-'0')
		times = append(times, struct{ hour, min int }{h, m})
	}

	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	var dates []time.Time
	switch s.Kind {
	case types.ScheduleDaily:
		dates = []time.Time{day}

	case types.ScheduleWeekly:
		for _, d := range s.Days {
			offset := (WeekdayIndex(d) - int(ref.Weekday()) + 7) % 7
			dates = append(dates, day.AddDate(0, 0, offset))
		}

	case types.ScheduleInterval:
		dates = []time.Time{day.AddDate(0, 0, s.IntervalDays)}
	}

	occurrences := make([]time.Time, 0, len(dates)*len(times))
	for _, d := range dates {
		for _, t := range times {
			occurrences = append(occurrences,
				time.Date(d.Year(), d.Month(), d.Day(), t.hour, t.min, 0, 0, d.Location()))
		}
	}

	sort.Slice(occurrences, func(i, j int) bool { return occurrences[i].Before(occurrences[j]) })
	return occurrences, nil
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's day in its location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
