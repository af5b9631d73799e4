package habit

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used for habit logs. Logs
// store the date the user intends, not a timestamp, so the column is a
// plain date and the wire format is YYYY-MM-DD.
const DateLayout = "2006-01-02"

type Category string

const (
	CategoryHealth       Category = "health"
	CategoryLearning     Category = "learning"
	CategoryProductivity Category = "productivity"
	CategoryMindset      Category = "mindset"
	CategoryLifestyle    Category = "lifestyle"
)

type TimeOfDay string

const (
	TimeAnytime   TimeOfDay = "anytime"
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

type Habit struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Category    Category  `json:"category" db:"category"`
	TimeOfDay   TimeOfDay `json:"time_of_day" db:"time_of_day"`
	Frequency   Frequency `json:"frequency" db:"frequency"`
	TargetCount int       `json:"target_count" db:"target_count"`
	Streak      int       `json:"streak" db:"streak"`
	BestStreak  int       `json:"best_streak" db:"best_streak"`
	Archived    bool      `json:"archived" db:"archived"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Log is a single completion record. At most one row exists per
// (habit, date) pair, enforced by a unique index rather than
// application-level checks.
type Log struct {
	ID        uuid.UUID `json:"id" db:"id"`
	HabitID   uuid.UUID `json:"habit_id" db:"habit_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Date      string    `json:"date" db:"date"`
	Completed bool      `json:"completed" db:"completed"`
	Count     int       `json:"count" db:"count"`
}

type CreateHabitRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category,omitempty"`
	TimeOfDay   TimeOfDay `json:"time_of_day,omitempty"`
	Frequency   Frequency `json:"frequency,omitempty"`
	TargetCount int       `json:"target_count,omitempty"`
}

// UpdateHabitRequest carries partial updates; nil fields are left
// untouched.
type UpdateHabitRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	TimeOfDay   *TimeOfDay `json:"time_of_day,omitempty"`
	Frequency   *Frequency `json:"frequency,omitempty"`
	TargetCount *int       `json:"target_count,omitempty"`
	Archived    *bool      `json:"archived,omitempty"`
}

type ToggleRequest struct {
	Date string `json:"date" validate:"required"`
}

type ToggleState string

const (
	ToggleCompleted   ToggleState = "completed"
	ToggleUncompleted ToggleState = "uncompleted"
)

type ToggleResponse struct {
	HabitID    uuid.UUID   `json:"habit_id"`
	Date       string      `json:"date"`
	State      ToggleState `json:"state"`
	Streak     int         `json:"streak"`
	BestStreak int         `json:"best_streak"`
}

type HabitsResponse struct {
	Habits []*Habit `json:"habits"`
	Logs   []*Log   `json:"logs"`
}

func ValidCategory(c Category) bool {
	switch c {
	case CategoryHealth, CategoryLearning, CategoryProductivity, CategoryMindset, CategoryLifestyle:
		return true
	}
	return false
}

func ValidTimeOfDay(t TimeOfDay) bool {
	switch t {
	case TimeAnytime, TimeMorning, TimeAfternoon, TimeEvening:
		return true
	}
	return false
}

func ValidFrequency(f Frequency) bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}
