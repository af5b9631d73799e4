package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ClerkID       string    `json:"clerk_id" db:"clerk_id"`
	Email         string    `json:"email" db:"email"`
	Name          string    `json:"name" db:"name"`
	ImageURL      string    `json:"image_url,omitempty" db:"image_url"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	XP            int       `json:"xp" db:"xp"`
	Level         int       `json:"level" db:"level"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type CreateUserRequest struct {
	ClerkID       string `json:"clerk_id" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name" validate:"required"`
	ImageURL      string `json:"image_url,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// UpdateProfileRequest carries partial updates; nil fields keep their
// current values.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

// LeaderboardEntry ranks users by accumulated XP.
type LeaderboardEntry struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url,omitempty"`
	XP       int       `json:"xp"`
	Level    int       `json:"level"`
	Rank     int       `json:"rank"`
}
