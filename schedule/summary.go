/*
summary.go - Worked-hours tallies over a materialized span

PURPOSE:
  Aggregates a set of computed WorkScheduleDays into the totals the UI shows
  next to a month view: scheduled hours, shifts per type, rest days. Uses
  decimal arithmetic so 7h45m shifts summed over a month do not accumulate
  float error.

SEE ALSO:
  - materializer.go: produces the days this summarizes
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// HoursSummary aggregates one scope's schedule over [From, To].
type HoursSummary struct {
	From TimePoint
	To   TimePoint

	// TotalHours is the sum of scheduled working hours, break windows
	// excluded, midnight-crossing shifts counted in full.
	TotalHours decimal.Decimal

	// ShiftCounts counts events per shift type (rest types included).
	ShiftCounts map[ShiftTypeID]int

	// WorkDays is the number of days with at least one working event;
	// RestDays the number with events but none of them working.
	WorkDays int
	RestDays int
}

// SummarizeHours tallies a materialized span. Pure: days with no events
// contribute nothing.
func SummarizeHours(days map[TimePoint]WorkScheduleDay) HoursSummary {
	summary := HoursSummary{
		TotalHours:  decimal.Zero,
		ShiftCounts: make(map[ShiftTypeID]int),
	}

	first := true
	for date, day := range days {
		if first || date.Before(summary.From) {
			summary.From = date
		}
		if first || date.After(summary.To) {
			summary.To = date
		}
		first = false

		working := false
		for _, ev := range day.Events {
			summary.ShiftCounts[ev.Shift.ID]++
			if ev.Shift.Rest {
				continue
			}
			working = true
			minutes := decimal.NewFromInt(int64(ev.Shift.DurationMinutes()))
			summary.TotalHours = summary.TotalHours.Add(minutes.Div(minutesPerHour))
		}
		if len(day.Events) == 0 {
			continue
		}
		if working {
			summary.WorkDays++
		} else {
			summary.RestDays++
		}
	}
	return summary
}
