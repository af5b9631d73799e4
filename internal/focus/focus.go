package focus

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Category string

const (
	CategoryStudy   Category = "study"
	CategoryWork    Category = "work"
	CategoryReading Category = "reading"
	CategoryMeeting Category = "meeting"
)

// XPCap bounds the reward so pathological durations cannot mint
// unbounded XP.
const (
	XPPerMinute = 2
	XPCap       = 500
)

// XPForDuration is the payout rule for a completed session.
func XPForDuration(durationMinutes int) int {
	xp := durationMinutes * XPPerMinute
	if xp < 0 {
		return 0
	}
	if xp > XPCap {
		return XPCap
	}
	return xp
}

type Session struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Status          Status     `json:"status" db:"status"`
	Category        Category   `json:"category" db:"category"`
	StartTime       time.Time  `json:"start_time" db:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty" db:"end_time"`
}

type StartSessionRequest struct {
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=1"`
	Category        Category `json:"category,omitempty"`
}

type CompleteSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	XPEarned  int       `json:"xp_earned"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	LeveledUp bool      `json:"leveled_up"`
}

// ActiveSession is a feed row for the "focusing now" view; UserName is
// a display snapshot joined from users.
type ActiveSession struct {
	Session
	UserName string `json:"user_name"`
}

type ActiveSessionsResponse struct {
	ActiveUsers []*ActiveSession `json:"active_users"`
	TotalActive int              `json:"total_active"`
}

func ValidCategory(c Category) bool {
	switch c {
	case CategoryStudy, CategoryWork, CategoryReading, CategoryMeeting:
		return true
	}
	return false
}
