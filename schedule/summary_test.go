package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/shift-engine/schedule"
)

func dayWith(d schedule.TimePoint, shifts ...schedule.ShiftType) schedule.WorkScheduleDay {
	events := make([]schedule.WorkScheduleEvent, len(shifts))
	for i, s := range shifts {
		events[i] = schedule.WorkScheduleEvent{Date: d, Shift: s}
	}
	return schedule.WorkScheduleDay{Date: d, Events: events}
}

func TestSummarizeHours_BasicTally(t *testing.T) {
	// GIVEN: Two 8-hour working days, one rest day, one empty day
	d := date(2026, time.March, 2)
	days := map[schedule.TimePoint]schedule.WorkScheduleDay{
		d:            dayWith(d, morning),
		d.AddDays(1): dayWith(d.AddDays(1), afternoon),
		d.AddDays(2): dayWith(d.AddDays(2), restShift),
		d.AddDays(3): {Date: d.AddDays(3), Events: []schedule.WorkScheduleEvent{}},
	}

	s := schedule.SummarizeHours(days)

	assert.Equal(t, "16", s.TotalHours.String())
	assert.Equal(t, 2, s.WorkDays)
	assert.Equal(t, 1, s.RestDays, "empty days are not rest days")
	assert.Equal(t, 1, s.ShiftCounts["morning"])
	assert.Equal(t, 1, s.ShiftCounts["afternoon"])
	assert.Equal(t, 1, s.ShiftCounts["rest"])
	assert.True(t, s.From.Equal(d))
	assert.True(t, s.To.Equal(d.AddDays(3)))
}

func TestSummarizeHours_NightShiftCountsFullDuration(t *testing.T) {
	d := date(2026, time.March, 2)
	days := map[schedule.TimePoint]schedule.WorkScheduleDay{
		d: dayWith(d, night),
	}

	s := schedule.SummarizeHours(days)

	// 22:00 to 06:00 crossing midnight is 8 hours, not -16.
	assert.Equal(t, "8", s.TotalHours.String())
}

func TestSummarizeHours_BreakWindowSubtracted(t *testing.T) {
	withBreak := schedule.ShiftType{
		ID: "day", Name: "Day",
		Start: schedule.NewClockTime(8, 0), End: schedule.NewClockTime(20, 0),
		Break: &schedule.BreakWindow{
			Start: schedule.NewClockTime(12, 0), End: schedule.NewClockTime(12, 30),
		},
	}
	d := date(2026, time.March, 2)
	days := map[schedule.TimePoint]schedule.WorkScheduleDay{
		d: dayWith(d, withBreak),
	}

	s := schedule.SummarizeHours(days)

	// 12h minus a 30-minute break; decimal arithmetic keeps the half hour
	// exact.
	assert.Equal(t, "11.5", s.TotalHours.String())
}

func TestSummarizeHours_EmptyInput(t *testing.T) {
	s := schedule.SummarizeHours(nil)

	assert.True(t, s.TotalHours.IsZero())
	assert.Equal(t, 0, s.WorkDays)
	assert.Equal(t, 0, s.RestDays)
}

func TestSummarizeHours_MixedDayIsWorkDay(t *testing.T) {
	// A day with both a working shift and a rest marker counts as working.
	d := date(2026, time.March, 2)
	days := map[schedule.TimePoint]schedule.WorkScheduleDay{
		d: dayWith(d, morning, restShift),
	}

	s := schedule.SummarizeHours(days)

	assert.Equal(t, 1, s.WorkDays)
	assert.Equal(t, 0, s.RestDays)
}
