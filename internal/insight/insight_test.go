package insight

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"habitQuestAPI/internal/habit"
)

// 2024-01-04 is a Thursday.
var now = time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)

func newHabit(title string, streak int, archived bool) *habit.Habit {
	return &habit.Habit{
		ID:       uuid.New(),
		Title:    title,
		Streak:   streak,
		Archived: archived,
	}
}

func completedLog(h *habit.Habit, date string) *habit.Log {
	return &habit.Log{
		ID:        uuid.New(),
		HabitID:   h.ID,
		Date:      date,
		Completed: true,
		Count:     1,
	}
}

func TestGenerateOnboardingWhenNoActiveHabits(t *testing.T) {
	archived := newHabit("Old habit", 10, true)
	logs := []*habit.Log{completedLog(archived, "2024-01-03")}

	got := Generate([]*habit.Habit{archived}, logs, now)
	if len(got) != 1 {
		t.Fatalf("expected exactly one onboarding insight, got %d", len(got))
	}
	if got[0].Type != TypeSuggestion || got[0].Relevance != 100 {
		t.Errorf("unexpected onboarding insight: %+v", got[0])
	}
}

func TestGenerateBestDay(t *testing.T) {
	h := newHabit("Read", 0, false)
	// Six completions on Mondays: 2024-01-01, 01-08, ... 02-05.
	logs := []*habit.Log{
		completedLog(h, "2024-01-01"),
		completedLog(h, "2024-01-08"),
		completedLog(h, "2024-01-15"),
		completedLog(h, "2024-01-22"),
		completedLog(h, "2024-01-29"),
		completedLog(h, "2024-02-05"),
	}

	got := Generate([]*habit.Habit{h}, logs, now)

	found := false
	for _, in := range got {
		if in.ID == "best-day" {
			found = true
			if in.Type != TypePositive || in.Relevance != 80 {
				t.Errorf("unexpected best-day insight: %+v", in)
			}
			if in.Text != "You are most productive on Mondays!" {
				t.Errorf("best-day text should name the weekday, got %q", in.Text)
			}
		}
	}
	if !found {
		t.Error("expected a best-day insight for >5 completions on one weekday")
	}
}

func TestGenerateBestDayBelowThreshold(t *testing.T) {
	h := newHabit("Read", 0, false)
	logs := []*habit.Log{
		completedLog(h, "2024-01-01"),
		completedLog(h, "2024-01-08"),
	}

	for _, in := range Generate([]*habit.Habit{h}, logs, now) {
		if in.ID == "best-day" {
			t.Error("best-day must not fire at or below 5 completions")
		}
	}
}

func TestGenerateWeekendDip(t *testing.T) {
	h := newHabit("Exercise", 0, false)
	// Five weekday completions, no weekend ones: 0*2.5 < 5.
	logs := []*habit.Log{
		completedLog(h, "2024-01-01"), // Mon
		completedLog(h, "2024-01-02"), // Tue
		completedLog(h, "2024-01-03"), // Wed
		completedLog(h, "2024-01-04"), // Thu
		completedLog(h, "2024-01-05"), // Fri
	}

	found := false
	for _, in := range Generate([]*habit.Habit{h}, logs, now) {
		if in.ID == "weekend-dip" {
			found = true
			if in.Type != TypeNegative || in.Relevance != 70 {
				t.Errorf("unexpected weekend-dip insight: %+v", in)
			}
		}
	}
	if !found {
		t.Error("expected a weekend-dip insight")
	}
}

func TestGenerateWeekendDipBalanced(t *testing.T) {
	h := newHabit("Exercise", 0, false)
	// Two weekend completions vs four weekday ones: 2*2.5 >= 4.
	logs := []*habit.Log{
		completedLog(h, "2024-01-06"), // Sat
		completedLog(h, "2024-01-07"), // Sun
		completedLog(h, "2024-01-01"),
		completedLog(h, "2024-01-02"),
		completedLog(h, "2024-01-03"),
		completedLog(h, "2024-01-04"),
	}

	for _, in := range Generate([]*habit.Habit{h}, logs, now) {
		if in.ID == "weekend-dip" {
			t.Error("weekend-dip must not fire when weekends hold up")
		}
	}
}

func TestGenerateStreakRisk(t *testing.T) {
	atRisk := newHabit("Meditate", 5, false)
	safe := newHabit("Journal", 5, false)
	short := newHabit("Stretch", 2, false)

	logs := []*habit.Log{
		completedLog(safe, "2024-01-03"), // yesterday covered
	}

	got := Generate([]*habit.Habit{atRisk, safe, short}, logs, now)

	var riskIDs []string
	for _, in := range got {
		if in.Type == TypeSuggestion && in.Relevance == 90 {
			riskIDs = append(riskIDs, in.ID)
		}
	}
	if len(riskIDs) != 1 {
		t.Fatalf("expected exactly one streak-risk insight, got %d", len(riskIDs))
	}
	if riskIDs[0] != "streak-loss-"+atRisk.ID.String() {
		t.Errorf("streak-risk fired for the wrong habit: %s", riskIDs[0])
	}
}

func TestGenerateRankingAndTruncation(t *testing.T) {
	var habits []*habit.Habit
	var logs []*habit.Log

	// Six at-risk habits plus weekday-heavy logs fire more than five
	// rules; output must be the top five by relevance, descending.
	for i := 0; i < 6; i++ {
		h := newHabit("Habit", 4, false)
		habits = append(habits, h)
	}
	filler := newHabit("Filler", 0, false)
	habits = append(habits, filler)
	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"} {
		logs = append(logs, completedLog(filler, d))
	}

	got := Generate(habits, logs, now)
	if len(got) != 5 {
		t.Fatalf("expected truncation to 5 insights, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Relevance > got[i-1].Relevance {
			t.Errorf("insights not sorted by descending relevance: %d before %d",
				got[i-1].Relevance, got[i].Relevance)
		}
	}
	// All five slots go to the relevance-90 streak suggestions.
	for _, in := range got {
		if in.Relevance != 90 {
			t.Errorf("expected only relevance-90 insights to survive truncation, got %+v", in)
		}
	}
}
