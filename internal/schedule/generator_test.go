package schedule

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pillcare/pillcare-backend/internal/types"
)

// 2024-01-10 is a Wednesday.
var wednesday = time.Date(2024, 1, 10, 11, 30, 0, 0, time.UTC)

func TestNextOccurrencesDaily(t *testing.T) {
	sched := &Schedule{
		Kind:  types.ScheduleDaily,
		Times: []string{"8:00 pm", "8:00 am"},
	}

	got, err := NextOccurrences(sched, wednesday)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// One occurrence per time, dated the reference day, sorted ascending.
	assert.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC), got[1])
}

func TestNextOccurrencesWeekly(t *testing.T) {
	sched := &Schedule{
		Kind:  types.ScheduleWeekly,
		Times: []string{"9:00 am"},
		Days:  []string{"monday", "wednesday"},
	}

	got, err := NextOccurrences(sched, wednesday)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Wednesday matches the reference day itself (offset 0); Monday wraps to
	// the following week.
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), got[1])
}

func TestNextOccurrencesWeeklyAllDays(t *testing.T) {
	sched := &Schedule{
		Kind:  types.ScheduleWeekly,
		Times: []string{"12:00 pm"},
		Days:  []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
	}

	got, err := NextOccurrences(sched, wednesday)
	require.NoError(t, err)
	require.Len(t, got, 7)

	// Seven consecutive days starting on the reference day.
	for i, at := range got {
		assert.Equal(t, time.Date(2024, 1, 10+i, 12, 0, 0, 0, time.UTC), at)
	}
}

func TestNextOccurrencesInterval(t *testing.T) {
	sched := &Schedule{
		Kind:         types.ScheduleInterval,
		Times:        []string{"10:00"},
		IntervalDays: 3,
	}

	got, err := NextOccurrences(sched, wednesday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC), got[0])
}

func TestNextOccurrencesSorted(t *testing.T) {
	sched := &Schedule{
		Kind:  types.ScheduleWeekly,
		Times: []string{"8:00 pm", "8:00 am"},
		Days:  []string{"friday", "thursday"},
	}

	got, err := NextOccurrences(sched, wednesday)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].Before(got[j])
	}))
}

func TestNextOccurrencesRejectsInvalidSchedule(t *testing.T) {
	sched := &Schedule{Kind: "hourly", Times: []string{"8:00 am"}}
	_, err := NextOccurrences(sched, wednesday)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestNextOccurrencesKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ref := time.Date(2024, 1, 10, 23, 0, 0, 0, loc)

	sched := &Schedule{Kind: types.ScheduleDaily, Times: []string{"8:00 am"}}
	got, err := NextOccurrences(sched, ref)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, loc, got[0].Location())
	assert.Equal(t, 8, got[0].Hour())
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2024, 1, 10, 23, 59, 59, 123, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), StartOfDay(at))
}

func TestEndOfDay(t *testing.T) {
	at := time.Date(2024, 1, 10, 0, 0, 1, 0, time.UTC)
	end := EndOfDay(at)
	assert.Equal(t, 10, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.True(t, end.Before(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)))
	assert.True(t, end.After(time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)))
}
