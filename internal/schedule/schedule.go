// Package schedule holds the medication recurrence model and the pure
// occurrence generator. Nothing in here touches the store.
package schedule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pillcare/pillcare-backend/internal/types"
)

// Weekday names accepted in weekly schedules, indexed Sunday=0 to match
// time.Weekday.
var DaysOfWeek = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Schedule describes when a medication is due. Kind is a closed discriminant:
// daily uses Times only, weekly adds Days, interval adds IntervalDays.
type Schedule struct {
	Kind         string   `json:"type"`
	Times        []string `json:"times"`
	Days         []string `json:"days,omitempty"`
	IntervalDays int      `json:"interval_days,omitempty"`
}

// FormatError reports a malformed schedule or time string. It is a caller
// error: fixing the input is the only remedy, retrying is pointless.
type FormatError struct {
	Field string
	Value string
	Msg   string
}

func (e *FormatError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Msg)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

var timeRe = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s?(am|pm)?$`)

// To24Hour normalizes a time-of-day string to canonical "HH:MM". It accepts
// 12-hour input with an am/pm suffix ("8:00 AM", "12:15pm") and already
// canonical 24-hour input ("08:00", "23:30").
func To24Hour(s string) (string, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", &FormatError{Field: "time", Value: s, Msg: "expected h:mm am/pm or HH:MM"}
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if minutes > 59 {
		return "", &FormatError{Field: "time", Value: s, Msg: "minutes out of range"}
	}

	meridian := strings.ToLower(m[3])
	switch meridian {
	case "":
		if hours > 23 {
			return "", &FormatError{Field: "time", Value: s, Msg: "hours out of range"}
		}
	case "pm":
		if hours < 1 || hours > 12 {
			return "", &FormatError{Field: "time", Value: s, Msg: "hours out of range"}
		}
		if hours != 12 {
			hours += 12
		}
	case "am":
		if hours < 1 || hours > 12 {
			return "", &FormatError{Field: "time", Value: s, Msg: "hours out of range"}
		}
		if hours == 12 {
			hours = 0
		}
	}

	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// WeekdayIndex returns the Sunday=0 index of a weekday name, or -1.
func WeekdayIndex(day string) int {
	for i, d := range DaysOfWeek {
		if strings.EqualFold(d, day) {
			return i
		}
	}
	return -1
}

// Validate checks the schedule invariants: a known kind, at least one
// parseable time, weekly kinds carry at least one valid day, interval kinds
// a positive day count.
func (s *Schedule) Validate() error {
	if !types.IsValidScheduleKind(s.Kind) {
		return &FormatError{Field: "type", Value: s.Kind, Msg: "unknown schedule type"}
	}
	if len(s.Times) == 0 {
		return &FormatError{Field: "times", Msg: "at least one time is required"}
	}
	for _, t := range s.Times {
		if _, err := To24Hour(t); err != nil {
			return err
		}
	}

	switch s.Kind {
	case types.ScheduleWeekly:
		if len(s.Days) == 0 {
			return &FormatError{Field: "days", Msg: "at least one day is required"}
		}
		for _, d := range s.Days {
			if WeekdayIndex(d) == -1 {
				return &FormatError{Field: "days", Value: d, Msg: "unknown weekday"}
			}
		}
	case types.ScheduleInterval:
		if s.IntervalDays <= 0 {
			return &FormatError{Field: "interval_days", Value: strconv.Itoa(s.IntervalDays), Msg: "must be greater than 0"}
		}
	}

	return nil
}

// Parse decodes and validates a schedule from its stored JSON form.
func Parse(raw []byte) (*Schedule, error) {
	var s Schedule
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &FormatError{Field: "schedule", Msg: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
