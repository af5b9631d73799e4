package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryAcademic     Category = "academic"
	CategoryMindfulness  Category = "mindfulness"
	CategoryFitness      Category = "fitness"
	CategoryProductivity Category = "productivity"
	CategorySocial       Category = "social"
	CategoryHealth       Category = "health"
)

type Challenge struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Category     Category   `json:"category" db:"category"`
	DurationDays int        `json:"duration_days" db:"duration_days"`
	Icon         string     `json:"icon" db:"icon"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// WithStatus decorates a challenge with the requesting user's
// membership and the participant count.
type WithStatus struct {
	Challenge
	HasJoined        bool `json:"has_joined"`
	ParticipantCount int  `json:"participant_count"`
}

type CreateChallengeRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Category     Category `json:"category" validate:"required"`
	DurationDays int      `json:"duration_days" validate:"required,min=1"`
	Icon         string   `json:"icon,omitempty"`
}

type JoinResult struct {
	ID     uuid.UUID `json:"id"`
	Joined bool      `json:"joined"`
	Count  int       `json:"count"`
}

func ValidCategory(c Category) bool {
	switch c {
	case CategoryAcademic, CategoryMindfulness, CategoryFitness,
		CategoryProductivity, CategorySocial, CategoryHealth:
		return true
	}
	return false
}
