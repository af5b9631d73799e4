package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestAPI/internal/apperr"
	"habitQuestAPI/internal/settings"
)

type AdminService struct {
	db *pgxpool.Pool
}

func NewAdminService(db *pgxpool.Pool) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) GetSettings(ctx context.Context) ([]*settings.Setting, error) {
	rows, err := s.db.Query(ctx, `
	SELECT key, value, description, updated_by, updated_at
	FROM system_settings
	ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	defer rows.Close()

	list := []*settings.Setting{}
	for rows.Next() {
		st := &settings.Setting{}
		if err := rows.Scan(&st.Key, &st.Value, &st.Description, &st.UpdatedBy, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		list = append(list, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return list, nil
}

func (s *AdminService) GetSetting(ctx context.Context, key string) (*settings.Setting, error) {
	st := &settings.Setting{}
	err := s.db.QueryRow(ctx, `
	SELECT key, value, description, updated_by, updated_at
	FROM system_settings
	WHERE key = $1
	`, key).Scan(&st.Key, &st.Value, &st.Description, &st.UpdatedBy, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("setting %q: %w", key, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return st, nil
}

// SetSetting upserts by key; the last writer wins.
func (s *AdminService) SetSetting(ctx context.Context, updatedBy uuid.UUID, req *settings.SetSettingRequest) (*settings.Setting, error) {
	st := &settings.Setting{
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
		UpdatedBy:   &updatedBy,
	}
	err := s.db.QueryRow(ctx, `
	INSERT INTO system_settings (key, value, description, updated_by, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = $2, description = $3, updated_by = $4, updated_at = NOW()
	RETURNING updated_at
	`, st.Key, st.Value, st.Description, st.UpdatedBy).Scan(&st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set setting: %w", err)
	}
	return st, nil
}

// AdminStats is a coarse operational snapshot for the admin dashboard.
type AdminStats struct {
	Users          int `json:"users"`
	Habits         int `json:"habits"`
	LogsToday      int `json:"logs_today"`
	ActiveSessions int `json:"active_sessions"`
	Challenges     int `json:"challenges"`
}

func (s *AdminService) GetStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	err := s.db.QueryRow(ctx, `
	SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM habits),
		(SELECT COUNT(*) FROM habit_logs WHERE date = CURRENT_DATE),
		(SELECT COUNT(*) FROM focus_sessions WHERE status = 'active'),
		(SELECT COUNT(*) FROM challenges)
	`).Scan(&stats.Users, &stats.Habits, &stats.LogsToday, &stats.ActiveSessions, &stats.Challenges)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin stats: %w", err)
	}
	return stats, nil
}
