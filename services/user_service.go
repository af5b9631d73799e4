package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestAPI/internal/apperr"
	"habitQuestAPI/internal/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// CreateUser provisions an account from a Clerk webhook event. Replays
// of the same event upsert instead of duplicating.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:            uuid.New(),
		ClerkID:       req.ClerkID,
		Email:         req.Email,
		Name:          req.Name,
		ImageURL:      req.ImageURL,
		EmailVerified: req.EmailVerified,
		XP:            0,
		Level:         1,
	}

	err := s.db.QueryRow(ctx, `
	INSERT INTO users (id, clerk_id, email, name, image_url, email_verified, xp, level, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 0, 1, NOW(), NOW())
	ON CONFLICT (clerk_id) DO UPDATE
	SET email = $3, name = $4, image_url = $5, email_verified = $6, updated_at = NOW()
	RETURNING id, xp, level, created_at, updated_at
	`, u.ID, u.ClerkID, u.Email, u.Name, u.ImageURL, u.EmailVerified).Scan(
		&u.ID, &u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
	SELECT id, clerk_id, email, name, image_url, email_verified, xp, level, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Name, &u.ImageURL, &u.EmailVerified,
		&u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies a partial update; nil fields keep their
// current values.
func (s *UserService) UpdateProfile(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	tag, err := s.db.Exec(ctx, `
	UPDATE users
	SET name = COALESCE($2, name),
	    image_url = COALESCE($3, image_url),
	    updated_at = NOW()
	WHERE clerk_id = $1
	`, clerkID, req.Name, req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	return s.GetUserByClerkID(ctx, clerkID)
}

// DeleteUser removes the account and everything hanging off it, in
// dependency order inside one transaction.
func (s *UserService) DeleteUser(ctx context.Context, clerkID string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin user delete: %w", err)
	}
	defer tx.Rollback(ctx)

	statements := []string{
		`DELETE FROM habit_logs WHERE habit_id IN (SELECT id FROM habits WHERE user_id = $1)`,
		`DELETE FROM habits WHERE user_id = $1`,
		`DELETE FROM focus_sessions WHERE user_id = $1`,
		`DELETE FROM activity_likes WHERE user_id = $1`,
		`DELETE FROM activities WHERE user_id = $1`,
		`DELETE FROM challenge_participants WHERE user_id = $1`,
		`DELETE FROM device_tokens WHERE user_id = $1`,
		`DELETE FROM todos WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user delete: %w", err)
	}
	return nil
}

// GetLeaderboard ranks users by XP, top 50. Ties share creation order.
func (s *UserService) GetLeaderboard(ctx context.Context) ([]*user.LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, name, image_url, xp, level,
	       RANK() OVER (ORDER BY xp DESC) AS rank
	FROM users
	ORDER BY xp DESC, created_at
	LIMIT 50
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []*user.LeaderboardEntry{}
	for rows.Next() {
		e := &user.LeaderboardEntry{}
		err := rows.Scan(&e.UserID, &e.Name, &e.ImageURL, &e.XP, &e.Level, &e.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}
