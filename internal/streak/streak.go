package streak

import (
	"time"

	"habitQuestAPI/internal/habit"
)

// Current returns the number of consecutive calendar days ending at
// today or yesterday that have a completed log for the given habit.
//
// The anchor is today if today has a completed log, otherwise
// yesterday if yesterday has one. If neither day is covered the streak
// is broken and the result is 0 -- there is no grace day. From the
// anchor the walk moves back one day at a time and stops at the first
// gap.
func Current(habitID string, logs []*habit.Log, today time.Time) int {
	var dates []string
	for _, l := range logs {
		if l.HabitID.String() == habitID && l.Completed {
			dates = append(dates, l.Date)
		}
	}
	return CurrentFromDates(dates, today)
}

// CurrentFromDates is Current over a bare list of completed dates,
// used when the caller has already filtered logs per habit.
func CurrentFromDates(dates []string, today time.Time) int {
	covered := make(map[string]bool, len(dates))
	for _, d := range dates {
		covered[d] = true
	}
	if len(covered) == 0 {
		return 0
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !covered[day.Format(habit.DateLayout)] {
		day = day.AddDate(0, 0, -1)
		if !covered[day.Format(habit.DateLayout)] {
			return 0
		}
	}

	count := 0
	for covered[day.Format(habit.DateLayout)] {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}
