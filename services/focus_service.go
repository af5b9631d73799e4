package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestAPI/internal/apperr"
	"habitQuestAPI/internal/focus"
	"habitQuestAPI/internal/gamification"
)

// FocusService runs the focus-session state machine. A user has at
// most one active session; completed and cancelled are terminal.
type FocusService struct {
	db     *pgxpool.Pool
	ledger *GamificationService
}

func NewFocusService(db *pgxpool.Pool, ledger *GamificationService) *FocusService {
	return &FocusService{db: db, ledger: ledger}
}

// StartSession force-cancels any active session for the user and
// creates a new one, all in a single transaction. The cancel-then-
// insert pair is what enforces the single-active-session invariant --
// no explicit stop is required first.
func (s *FocusService) StartSession(ctx context.Context, clerkID string, req *focus.StartSessionRequest) (*focus.Session, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	category := req.Category
	if category == "" {
		category = focus.CategoryStudy
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin session start: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
	UPDATE focus_sessions
	SET status = $2, end_time = NOW()
	WHERE user_id = $1 AND status = $3
	`, userID, focus.StatusCancelled, focus.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel active sessions: %w", err)
	}

	session := &focus.Session{
		ID:              uuid.New(),
		UserID:          userID,
		DurationMinutes: req.DurationMinutes,
		Status:          focus.StatusActive,
		Category:        category,
	}
	err = tx.QueryRow(ctx, `
	INSERT INTO focus_sessions (id, user_id, duration_minutes, status, category, start_time)
	VALUES ($1, $2, $3, $4, $5, NOW())
	RETURNING start_time
	`, session.ID, session.UserID, session.DurationMinutes, session.Status, session.Category).Scan(&session.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session start: %w", err)
	}

	return session, nil
}

// CompleteSession transitions an active session to completed and pays
// out XP through the ledger. The status guard in the UPDATE makes the
// transition single-shot: a second call finds no active row and
// resolves to InvalidState, so XP can never be awarded twice.
func (s *FocusService) CompleteSession(ctx context.Context, clerkID string, sessionID uuid.UUID) (*focus.CompleteSessionResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	var durationMinutes int
	err = s.db.QueryRow(ctx, `
	UPDATE focus_sessions
	SET status = $3, end_time = NOW()
	WHERE id = $1 AND user_id = $2 AND status = $4
	RETURNING duration_minutes
	`, sessionID, userID, focus.StatusCompleted, focus.StatusActive).Scan(&durationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyCompleteFailure(ctx, sessionID, userID)
		}
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	xpEarned := focus.XPForDuration(durationMinutes)

	var result *gamification.AwardResult
	result, err = s.ledger.Award(ctx, userID, xpEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to award session xp: %w", err)
	}

	return &focus.CompleteSessionResponse{
		SessionID: sessionID,
		XPEarned:  xpEarned,
		XP:        result.XP,
		Level:     result.Level,
		LeveledUp: result.LeveledUp,
	}, nil
}

// classifyCompleteFailure distinguishes why the guarded UPDATE matched
// nothing: missing session, someone else's session, or a session
// already in a terminal state.
func (s *FocusService) classifyCompleteFailure(ctx context.Context, sessionID, userID uuid.UUID) error {
	var ownerID uuid.UUID
	var status focus.Status
	err := s.db.QueryRow(ctx, `SELECT user_id, status FROM focus_sessions WHERE id = $1`, sessionID).Scan(&ownerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session %s: %w", sessionID, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to inspect session: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("session %s: %w", sessionID, apperr.ErrUnauthorized)
	}
	return fmt.Errorf("session %s is %s: %w", sessionID, status, apperr.ErrInvalidState)
}

// GetActiveSessions lists who is focusing right now: the ten most
// recently started active sessions plus the total count.
func (s *FocusService) GetActiveSessions(ctx context.Context) (*focus.ActiveSessionsResponse, error) {
	rows, err := s.db.Query(ctx, `
	SELECT fs.id, fs.user_id, fs.duration_minutes, fs.status, fs.category, fs.start_time, fs.end_time, u.name
	FROM focus_sessions fs
	JOIN users u ON u.id = fs.user_id
	WHERE fs.status = $1
	ORDER BY fs.start_time DESC
	LIMIT 10
	`, focus.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*focus.ActiveSession{}
	for rows.Next() {
		a := &focus.ActiveSession{}
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.DurationMinutes,
			&a.Status,
			&a.Category,
			&a.StartTime,
			&a.EndTime,
			&a.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active session: %w", err)
		}
		sessions = append(sessions, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active sessions: %w", err)
	}

	var total int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM focus_sessions WHERE status = $1`, focus.StatusActive).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return &focus.ActiveSessionsResponse{ActiveUsers: sessions, TotalActive: total}, nil
}
