package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestAPI/internal/activity"
	"habitQuestAPI/internal/apperr"
	"habitQuestAPI/internal/gamification"
	"habitQuestAPI/internal/notification"
	"habitQuestAPI/middleware"
)

// GamificationService owns the per-user XP/level aggregate. All
// mutation funnels through Award; nothing else writes xp or level, so
// level == floor(xp/100)+1 cannot be bypassed.
type GamificationService struct {
	db   *pgxpool.Pool
	push notification.PushProvider
}

func NewGamificationService(db *pgxpool.Pool) *GamificationService {
	return &GamificationService{db: db}
}

// SetPushProvider injects an optional push provider for level-up
// notifications.
func (s *GamificationService) SetPushProvider(p notification.PushProvider) {
	s.push = p
}

// Award adds amount to the user's XP and recomputes the level inside
// one transaction. The XP change is the authoritative side effect; the
// LEVEL_UP feed entry and push notification are best-effort and run
// after commit, so their failure never rolls back the award. A large
// amount may cross several levels but still emits a single entry.
func (s *GamificationService) Award(ctx context.Context, userID uuid.UUID, amount int) (*gamification.AwardResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("award of %d: %w", amount, apperr.ErrInvalidAward)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin award: %w", err)
	}
	defer tx.Rollback(ctx)

	var xp, prevLevel int
	var userName string
	err = tx.QueryRow(ctx, `
	UPDATE users
	SET xp = xp + $2, updated_at = NOW()
	WHERE id = $1
	RETURNING xp, level, name
	`, userID, amount).Scan(&xp, &prevLevel, &userName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}

	newLevel := gamification.LevelForXP(xp)
	if newLevel != prevLevel {
		if _, err := tx.Exec(ctx, `UPDATE users SET level = $2 WHERE id = $1`, userID, newLevel); err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit award: %w", err)
	}

	middleware.XPAwards.Inc()

	leveledUp := newLevel > prevLevel
	if leveledUp {
		s.recordLevelUp(ctx, userID, userName, newLevel)
	}

	return &gamification.AwardResult{
		UserID:    userID,
		XPEarned:  amount,
		XP:        xp,
		Level:     newLevel,
		LeveledUp: leveledUp,
	}, nil
}

func (s *GamificationService) recordLevelUp(ctx context.Context, userID uuid.UUID, userName string, level int) {
	if userName == "" {
		userName = "Anonymous"
	}
	message := fmt.Sprintf("reached Level %d after a focus session!", level)

	_, err := s.db.Exec(ctx, `
	INSERT INTO activities (id, user_id, user_name, type, message, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New(), userID, userName, activity.TypeLevelUp, message)
	if err != nil {
		log.Printf("Award: failed to append LEVEL_UP activity for %s: %v", userID, err)
	}

	if s.push == nil {
		return
	}
	tokens, err := s.deviceTokens(ctx, userID)
	if err != nil {
		log.Printf("Award: failed to load device tokens for %s: %v", userID, err)
		return
	}
	err = s.push.SendPush(ctx, tokens, "Level Up!",
		fmt.Sprintf("You reached Level %d. Keep the momentum going!", level),
		map[string]string{"type": "level_up", "level": fmt.Sprintf("%d", level)})
	if err != nil {
		log.Printf("Award: level-up push failed for %s: %v", userID, err)
	}
}

func (s *GamificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// RegisterDevice stores a push token for the user, one row per token.
func (s *GamificationService) RegisterDevice(ctx context.Context, clerkID, token string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	_, err = s.db.Exec(ctx, `
	INSERT INTO device_tokens (user_id, token, registered_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (token) DO UPDATE SET user_id = $1, registered_at = NOW()
	`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// GetProgress returns the user's XP state plus distance to the next
// level.
func (s *GamificationService) GetProgress(ctx context.Context, clerkID string) (*gamification.Progress, error) {
	var xp, level int
	err := s.db.QueryRow(ctx, `SELECT xp, level FROM users WHERE clerk_id = $1`, clerkID).Scan(&xp, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	into := xp % gamification.XPPerLevel
	return &gamification.Progress{
		XP:            xp,
		Level:         level,
		XPIntoLevel:   into,
		XPToNextLevel: gamification.XPPerLevel - into,
	}, nil
}

// AwardStreakMilestone appends a STREAK_MILESTONE feed entry when a
// habit crosses a notable run. Best-effort, fired by the habit
// handler; no XP is attached.
func (s *GamificationService) AwardStreakMilestone(ctx context.Context, userID uuid.UUID, habitTitle string, streakDays int, targetID uuid.UUID) {
	var userName string
	if err := s.db.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&userName); err != nil {
		log.Printf("StreakMilestone: failed to resolve user %s: %v", userID, err)
		return
	}

	message := fmt.Sprintf("hit a %d-day streak on %s!", streakDays, habitTitle)
	_, err := s.db.Exec(ctx, `
	INSERT INTO activities (id, user_id, user_name, type, message, target_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, uuid.New(), userID, userName, activity.TypeStreakMilestone, message, targetID)
	if err != nil {
		log.Printf("StreakMilestone: failed to append activity: %v", err)
	}
}
