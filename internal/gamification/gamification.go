package gamification

import "github.com/google/uuid"

// XPPerLevel is the flat amount of experience between levels.
const XPPerLevel = 100

// LevelForXP derives the level from total experience. Level is a pure
// function of XP; nothing else may mutate it.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// AwardResult reports the user's gamification state after an award.
type AwardResult struct {
	UserID    uuid.UUID `json:"user_id"`
	XPEarned  int       `json:"xp_earned"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	LeveledUp bool      `json:"leveled_up"`
}

// Progress is the read side: current state plus how far into the
// current level the user is.
type Progress struct {
	XP            int `json:"xp"`
	Level         int `json:"level"`
	XPIntoLevel   int `json:"xp_into_level"`
	XPToNextLevel int `json:"xp_to_next_level"`
}
