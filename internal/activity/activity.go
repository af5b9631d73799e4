package activity

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLevelUp         Type = "LEVEL_UP"
	TypeChallengeJoin   Type = "CHALLENGE_JOIN"
	TypeStreakMilestone Type = "STREAK_MILESTONE"
)

// Entry is an append-only feed record. UserName is snapshotted at
// write time so renames do not rewrite history. Only the likes set is
// mutable after creation.
type Entry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	UserName  string     `json:"user_name" db:"user_name"`
	Type      Type       `json:"type" db:"type"`
	Message   string     `json:"message" db:"message"`
	TargetID  *uuid.UUID `json:"target_id,omitempty" db:"target_id"`
	Likes     int        `json:"likes"`
	LikedByMe bool       `json:"liked_by_me"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
