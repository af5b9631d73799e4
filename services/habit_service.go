package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestAPI/internal/apperr"
	"habitQuestAPI/internal/habit"
	"habitQuestAPI/internal/streak"
	"habitQuestAPI/middleware"
)

// milestoneStreaks are the runs worth announcing on the feed.
var milestoneStreaks = map[int]bool{7: true, 30: true, 100: true}

type HabitService struct {
	db     *pgxpool.Pool
	ledger *GamificationService
}

func NewHabitService(db *pgxpool.Pool) *HabitService {
	return &HabitService{db: db}
}

// SetLedger injects the gamification service used for streak milestone
// feed entries.
func (s *HabitService) SetLedger(ledger *GamificationService) {
	s.ledger = ledger
}

func (s *HabitService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// GetHabits returns the user's habits newest-first together with all
// their logs, matching the shape the dashboard consumes.
func (s *HabitService) GetHabits(ctx context.Context, clerkID string) (*habit.HabitsResponse, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, title, description, category, time_of_day, frequency,
	       target_count, streak, best_streak, archived, created_at
	FROM habits
	WHERE user_id = $1
	ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	defer rows.Close()

	habits := []*habit.Habit{}
	for rows.Next() {
		h := &habit.Habit{}
		err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.Description,
			&h.Category,
			&h.TimeOfDay,
			&h.Frequency,
			&h.TargetCount,
			&h.Streak,
			&h.BestStreak,
			&h.Archived,
			&h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	logs, err := s.logsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &habit.HabitsResponse{Habits: habits, Logs: logs}, nil
}

func (s *HabitService) logsForUser(ctx context.Context, userID uuid.UUID) ([]*habit.Log, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, habit_id, user_id, to_char(date, 'YYYY-MM-DD'), completed, count
	FROM habit_logs
	WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habit logs: %w", err)
	}
	defer rows.Close()

	logs := []*habit.Log{}
	for rows.Next() {
		l := &habit.Log{}
		if err := rows.Scan(&l.ID, &l.HabitID, &l.UserID, &l.Date, &l.Completed, &l.Count); err != nil {
			return nil, fmt.Errorf("failed to scan habit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habit logs: %w", err)
	}
	return logs, nil
}

func (s *HabitService) CreateHabit(ctx context.Context, clerkID string, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	h := &habit.Habit{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TimeOfDay:   req.TimeOfDay,
		Frequency:   req.Frequency,
		TargetCount: req.TargetCount,
		CreatedAt:   time.Now().UTC(),
	}
	if h.Category == "" {
		h.Category = habit.CategoryHealth
	}
	if h.TimeOfDay == "" {
		h.TimeOfDay = habit.TimeAnytime
	}
	if h.Frequency == "" {
		h.Frequency = habit.FrequencyDaily
	}
	if h.TargetCount < 1 {
		h.TargetCount = 1
	}

	err = s.db.QueryRow(ctx, `
	INSERT INTO habits (id, user_id, title, description, category, time_of_day, frequency, target_count, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING streak, best_streak, archived
	`,
		h.ID, h.UserID, h.Title, h.Description, h.Category, h.TimeOfDay, h.Frequency, h.TargetCount, h.CreatedAt,
	).Scan(&h.Streak, &h.BestStreak, &h.Archived)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return h, nil
}

func (s *HabitService) UpdateHabit(ctx context.Context, clerkID string, habitID uuid.UUID, req *habit.UpdateHabitRequest) (*habit.Habit, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	h := &habit.Habit{}
	err = s.db.QueryRow(ctx, `
	UPDATE habits
	SET
		title        = COALESCE($3, title),
		description  = COALESCE($4, description),
		category     = COALESCE($5, category),
		time_of_day  = COALESCE($6, time_of_day),
		frequency    = COALESCE($7, frequency),
		target_count = COALESCE($8, target_count),
		archived     = COALESCE($9, archived)
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, title, description, category, time_of_day, frequency,
	          target_count, streak, best_streak, archived, created_at
	`,
		habitID, userID,
		req.Title, req.Description, req.Category, req.TimeOfDay, req.Frequency, req.TargetCount, req.Archived,
	).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&h.Category,
		&h.TimeOfDay,
		&h.Frequency,
		&h.TargetCount,
		&h.Streak,
		&h.BestStreak,
		&h.Archived,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}

	return h, nil
}

// DeleteHabit removes the habit and all of its logs in one
// transaction, so a failure cannot strand orphaned logs.
func (s *HabitService) DeleteHabit(ctx context.Context, clerkID string, habitID uuid.UUID) error {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM habit_logs WHERE habit_id = $1`, habitID); err != nil {
		return fmt.Errorf("failed to delete habit logs: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit habit delete: %w", err)
	}
	return nil
}

// ownedHabit loads the habit and enforces ownership. A habit that
// exists but belongs to someone else is Unauthorized, never leaked as
// data.
func (s *HabitService) ownedHabit(ctx context.Context, userID, habitID uuid.UUID) (*habit.Habit, error) {
	h := &habit.Habit{}
	err := s.db.QueryRow(ctx, `
	SELECT id, user_id, title, description, category, time_of_day, frequency,
	       target_count, streak, best_streak, archived, created_at
	FROM habits
	WHERE id = $1
	`, habitID).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&h.Category,
		&h.TimeOfDay,
		&h.Frequency,
		&h.TargetCount,
		&h.Streak,
		&h.BestStreak,
		&h.Archived,
		&h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("habit %s: %w", habitID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	if h.UserID != userID {
		return nil, fmt.Errorf("habit %s: %w", habitID, apperr.ErrUnauthorized)
	}
	return h, nil
}

// ToggleCompletion flips the completion log for (habit, date). If a
// log exists it is deleted; otherwise one is inserted. The unique
// index on (habit_id, date) makes concurrent inserts collapse to a
// single row -- ON CONFLICT DO NOTHING turns the loser of that race
// into a no-op rather than an error. Afterwards the streak is
// recomputed and persisted, ratcheting best_streak.
func (s *HabitService) ToggleCompletion(ctx context.Context, clerkID string, habitID uuid.UUID, date string) (*habit.ToggleResponse, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	state := habit.ToggleUncompleted
	tag, err := s.db.Exec(ctx, `DELETE FROM habit_logs WHERE habit_id = $1 AND date = $2`, habitID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle off: %w", err)
	}

	if tag.RowsAffected() == 0 {
		_, err = s.db.Exec(ctx, `
		INSERT INTO habit_logs (id, habit_id, user_id, date, completed, count)
		VALUES ($1, $2, $3, $4, true, 1)
		ON CONFLICT (habit_id, date) DO NOTHING
		`, uuid.New(), habitID, userID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to toggle on: %w", err)
		}
		state = habit.ToggleCompleted
	}

	middleware.HabitToggles.WithLabelValues(string(state)).Inc()

	current, best, err := s.refreshStreak(ctx, habitID)
	if err != nil {
		return nil, err
	}

	if state == habit.ToggleCompleted && milestoneStreaks[current] && s.ledger != nil {
		s.ledger.AwardStreakMilestone(ctx, userID, h.Title, current, habitID)
	}

	return &habit.ToggleResponse{
		HabitID:    habitID,
		Date:       date,
		State:      state,
		Streak:     current,
		BestStreak: best,
	}, nil
}

// refreshStreak recomputes the habit's current streak from its
// completed logs and persists it; best_streak only ever increases.
func (s *HabitService) refreshStreak(ctx context.Context, habitID uuid.UUID) (int, int, error) {
	rows, err := s.db.Query(ctx, `
	SELECT to_char(date, 'YYYY-MM-DD')
	FROM habit_logs
	WHERE habit_id = $1 AND completed = true
	`, habitID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch log dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return 0, 0, fmt.Errorf("failed to scan log date: %w", err)
		}
		dates = append(dates, d)
	}
	if err = rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("error iterating log dates: %w", err)
	}

	current := streak.CurrentFromDates(dates, time.Now().UTC())

	var best int
	err = s.db.QueryRow(ctx, `
	UPDATE habits
	SET streak = $2, best_streak = GREATEST(best_streak, $2)
	WHERE id = $1
	RETURNING best_streak
	`, habitID, current).Scan(&best)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to persist streak: %w", err)
	}

	return current, best, nil
}
