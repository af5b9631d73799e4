package insight

import (
	"fmt"
	"sort"
	"time"

	"habitQuestAPI/internal/habit"
)

type Type string

const (
	TypePositive   Type = "positive"
	TypeNegative   Type = "negative"
	TypeNeutral    Type = "neutral"
	TypeSuggestion Type = "suggestion"
)

type Insight struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Text      string `json:"text"`
	Relevance int    `json:"relevance"` // 0-100
}

const (
	maxInsights      = 5
	bestDayThreshold = 5
)

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Generate derives a ranked list of observations from habits and logs.
// Deterministic and side-effect free; rules are evaluated
// independently and the result is the top five by relevance, ties kept
// in rule order.
func Generate(habits []*habit.Habit, logs []*habit.Log, now time.Time) []Insight {
	var active []*habit.Habit
	for _, h := range habits {
		if !h.Archived {
			active = append(active, h)
		}
	}

	if len(active) == 0 {
		return []Insight{{
			ID:        "start",
			Type:      TypeSuggestion,
			Text:      "Start by creating your first habit!",
			Relevance: 100,
		}}
	}

	var insights []Insight

	// Day-of-week strength.
	var weekDayCounts [7]int
	for _, l := range logs {
		if !l.Completed {
			continue
		}
		d, err := time.Parse(habit.DateLayout, l.Date)
		if err != nil {
			continue
		}
		weekDayCounts[int(d.Weekday())]++
	}

	bestDay := 0
	for i := 1; i < 7; i++ {
		if weekDayCounts[i] > weekDayCounts[bestDay] {
			bestDay = i
		}
	}
	if weekDayCounts[bestDay] > bestDayThreshold {
		insights = append(insights, Insight{
			ID:        "best-day",
			Type:      TypePositive,
			Text:      fmt.Sprintf("You are most productive on %ss!", weekdayNames[bestDay]),
			Relevance: 80,
		})
	}

	// Weekend dip. weekend*2.5 < weekday, kept in integer math.
	weekend := weekDayCounts[0] + weekDayCounts[6]
	weekday := 0
	for _, c := range weekDayCounts {
		weekday += c
	}
	weekday -= weekend

	if weekend*5 < weekday*2 {
		insights = append(insights, Insight{
			ID:        "weekend-dip",
			Type:      TypeNegative,
			Text:      "Your consistency drops significantly on weekends.",
			Relevance: 70,
		})
	}

	// Streak at risk: a streak above 3 with yesterday uncovered. Uses
	// the habit's cached streak on purpose -- a fresh recomputation
	// would already be reset by the missed day this rule warns about.
	yesterday := now.AddDate(0, 0, -1).Format(habit.DateLayout)
	for _, h := range active {
		if h.Streak <= 3 {
			continue
		}
		coveredYesterday := false
		for _, l := range logs {
			if l.HabitID == h.ID && l.Date == yesterday && l.Completed {
				coveredYesterday = true
				break
			}
		}
		if !coveredYesterday {
			insights = append(insights, Insight{
				ID:        "streak-loss-" + h.ID.String(),
				Type:      TypeSuggestion,
				Text:      fmt.Sprintf("You missed %q yesterday. Don't let it slide today!", h.Title),
				Relevance: 90,
			})
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Relevance > insights[j].Relevance
	})
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}
