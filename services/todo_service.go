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
	"habitQuestAPI/internal/todo"
)

type TodoService struct {
	db *pgxpool.Pool
}

func NewTodoService(db *pgxpool.Pool) *TodoService {
	return &TodoService{db: db}
}

func (s *TodoService) GetTodos(ctx context.Context, clerkID string) ([]*todo.Todo, error) {
	rows, err := s.db.Query(ctx, `
	SELECT t.id, t.user_id, t.title, to_char(t.date, 'YYYY-MM-DD'), t.completed, t.created_at
	FROM todos t
	JOIN users u ON u.id = t.user_id
	WHERE u.clerk_id = $1
	ORDER BY t.created_at DESC
	`, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch todos: %w", err)
	}
	defer rows.Close()

	todos := []*todo.Todo{}
	for rows.Next() {
		t := &todo.Todo{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Date, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

func (s *TodoService) CreateTodo(ctx context.Context, clerkID string, req *todo.CreateTodoRequest) (*todo.Todo, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format(habit.DateLayout)
	}

	t := &todo.Todo{
		ID:     uuid.New(),
		UserID: userID,
		Title:  req.Title,
		Date:   date,
	}
	err = s.db.QueryRow(ctx, `
	INSERT INTO todos (id, user_id, title, date, completed, created_at)
	VALUES ($1, $2, $3, $4, false, NOW())
	RETURNING created_at
	`, t.ID, t.UserID, t.Title, t.Date).Scan(&t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return t, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, clerkID string, todoID uuid.UUID, req *todo.UpdateTodoRequest) (*todo.Todo, error) {
	t := &todo.Todo{}
	err := s.db.QueryRow(ctx, `
	UPDATE todos t
	SET title     = COALESCE($3, t.title),
	    completed = COALESCE($4, t.completed),
	    date      = COALESCE($5::date, t.date)
	FROM users u
	WHERE t.id = $1 AND t.user_id = u.id AND u.clerk_id = $2
	RETURNING t.id, t.user_id, t.title, to_char(t.date, 'YYYY-MM-DD'), t.completed, t.created_at
	`, todoID, clerkID, req.Title, req.Completed, req.Date).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Date, &t.Completed, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyTodoFailure(ctx, todoID)
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return t, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, clerkID string, todoID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
	DELETE FROM todos t
	USING users u
	WHERE t.id = $1 AND t.user_id = u.id AND u.clerk_id = $2
	`, todoID, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyTodoFailure(ctx, todoID)
	}
	return nil
}

func (s *TodoService) classifyTodoFailure(ctx context.Context, todoID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM todos WHERE id = $1)`, todoID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to inspect todo: %w", err)
	}
	if exists {
		return fmt.Errorf("todo %s: %w", todoID, apperr.ErrUnauthorized)
	}
	return fmt.Errorf("todo %s: %w", todoID, apperr.ErrNotFound)
}
