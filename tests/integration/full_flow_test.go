package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitQuestAPI/handlers"
	"habitQuestAPI/internal/focus"
	modelHabit "habitQuestAPI/internal/habit"
	modelUser "habitQuestAPI/internal/user"
	"habitQuestAPI/middleware"
	"habitQuestAPI/services"
	"habitQuestAPI/tests/helpers"
)

func createTestUser(t *testing.T, pool *pgxpool.Pool, tag string) (string, *modelUser.User) {
	t.Helper()
	clerkID := fmt.Sprintf("user_test_%s_%d", tag, time.Now().UnixNano())
	u, err := services.NewUserService(pool).CreateUser(context.Background(), &modelUser.CreateUserRequest{
		ClerkID: clerkID,
		Email:   fmt.Sprintf("test.%s@example.com", tag),
		Name:    "Test " + tag,
	})
	require.NoError(t, err)
	return clerkID, u
}

func authedRequest(method, target string, body []byte, clerkID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	return req.WithContext(ctx)
}

// TestHabitToggleFlow creates a habit over HTTP and toggles the same
// date three times: completed, uncompleted, completed again.
func TestHabitToggleFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	habitService := services.NewHabitService(pool)
	habitHandler := handlers.NewHabitHandler(habitService)

	clerkID, _ := createTestUser(t, pool, "toggle")

	body := []byte(`{"title": "Morning Run", "category": "health", "time_of_day": "morning"}`)
	rr := httptest.NewRecorder()
	habitHandler.CreateHabit(rr, authedRequest(http.MethodPost, "/api/v1/habits", body, clerkID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created modelHabit.Habit
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 0, created.Streak)
	assert.Equal(t, 1, created.TargetCount)

	today := time.Now().UTC().Format(modelHabit.DateLayout)
	toggleURL := fmt.Sprintf("/api/v1/habits/%s/toggle", created.ID)
	toggleBody := []byte(fmt.Sprintf(`{"date": "%s"}`, today))

	toggle := func() modelHabit.ToggleResponse {
		req := authedRequest(http.MethodPost, toggleURL, toggleBody, clerkID)
		req = mux.SetURLVars(req, map[string]string{"id": created.ID.String()})
		rec := httptest.NewRecorder()
		habitHandler.ToggleCompletion(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp modelHabit.ToggleResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	first := toggle()
	assert.Equal(t, modelHabit.ToggleCompleted, first.State)
	assert.Equal(t, 1, first.Streak)
	assert.Equal(t, 1, first.BestStreak)

	second := toggle()
	assert.Equal(t, modelHabit.ToggleUncompleted, second.State)
	assert.Equal(t, 0, second.Streak)
	assert.Equal(t, 1, second.BestStreak, "best streak never decreases")

	third := toggle()
	assert.Equal(t, modelHabit.ToggleCompleted, third.State)
	assert.Equal(t, 1, third.Streak)

	var logCount int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM habit_logs WHERE habit_id = $1`, created.ID).Scan(&logCount)
	require.NoError(t, err)
	assert.Equal(t, 1, logCount, "odd number of toggles leaves exactly one log")

	t.Log("bad date format is rejected before hitting the store")
	req := authedRequest(http.MethodPost, toggleURL, []byte(`{"date": "03/15/2024"}`), clerkID)
	req = mux.SetURLVars(req, map[string]string{"id": created.ID.String()})
	rec := httptest.NewRecorder()
	habitHandler.ToggleCompletion(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestFocusSessionFlow exercises the single-active-session invariant
// and the single-shot XP payout.
func TestFocusSessionFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	ledger := services.NewGamificationService(pool)
	focusService := services.NewFocusService(pool, ledger)

	clerkID, u := createTestUser(t, pool, "focus")
	ctx := context.Background()

	first, err := focusService.StartSession(ctx, clerkID, &focus.StartSessionRequest{DurationMinutes: 25})
	require.NoError(t, err)
	assert.Equal(t, focus.StatusActive, first.Status)
	assert.Equal(t, focus.CategoryStudy, first.Category, "category defaults to study")

	second, err := focusService.StartSession(ctx, clerkID, &focus.StartSessionRequest{
		DurationMinutes: 10,
		Category:        focus.CategoryReading,
	})
	require.NoError(t, err)

	var firstStatus focus.Status
	err = pool.QueryRow(ctx, `SELECT status FROM focus_sessions WHERE id = $1`, first.ID).Scan(&firstStatus)
	require.NoError(t, err)
	assert.Equal(t, focus.StatusCancelled, firstStatus, "starting a session cancels the previous one")

	completed, err := focusService.CompleteSession(ctx, clerkID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, completed.XPEarned, "10 minutes at 2 XP per minute")
	assert.Equal(t, 20, completed.XP)
	assert.Equal(t, 1, completed.Level)
	assert.False(t, completed.LeveledUp)

	t.Log("completing again is rejected, no double payout")
	_, err = focusService.CompleteSession(ctx, clerkID, second.ID)
	require.Error(t, err)

	var xp int
	err = pool.QueryRow(ctx, `SELECT xp FROM users WHERE id = $1`, u.ID).Scan(&xp)
	require.NoError(t, err)
	assert.Equal(t, 20, xp)

	t.Log("completing the cancelled session pays nothing either")
	_, err = focusService.CompleteSession(ctx, clerkID, first.ID)
	require.Error(t, err)

	t.Log("someone else's session is off limits")
	otherClerkID, _ := createTestUser(t, pool, "focusother")
	otherSession, err := focusService.StartSession(ctx, otherClerkID, &focus.StartSessionRequest{DurationMinutes: 5})
	require.NoError(t, err)
	_, err = focusService.CompleteSession(ctx, clerkID, otherSession.ID)
	require.Error(t, err)
}

// TestLevelUpEmitsOneFeedEntry pushes a user across a level boundary
// and checks the feed side effect.
func TestLevelUpEmitsOneFeedEntry(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	ledger := services.NewGamificationService(pool)
	_, u := createTestUser(t, pool, "levelup")
	ctx := context.Background()

	_, err := pool.Exec(ctx, `UPDATE users SET xp = 95 WHERE id = $1`, u.ID)
	require.NoError(t, err)

	result, err := ledger.Award(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 105, result.XP)
	assert.Equal(t, 2, result.Level)
	assert.True(t, result.LeveledUp)

	var entries int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id = $1 AND type = 'LEVEL_UP'`, u.ID).Scan(&entries)
	require.NoError(t, err)
	assert.Equal(t, 1, entries)

	t.Log("a big award crossing several levels still emits one entry")
	result, err = ledger.Award(ctx, u.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 605, result.XP)
	assert.Equal(t, 7, result.Level)
	assert.True(t, result.LeveledUp)

	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id = $1 AND type = 'LEVEL_UP'`, u.ID).Scan(&entries)
	require.NoError(t, err)
	assert.Equal(t, 2, entries)

	t.Log("negative awards are rejected before any write")
	_, err = ledger.Award(ctx, u.ID, -5)
	require.Error(t, err)

	var xp int
	err = pool.QueryRow(ctx, `SELECT xp FROM users WHERE id = $1`, u.ID).Scan(&xp)
	require.NoError(t, err)
	assert.Equal(t, 605, xp, "XP is monotonic")
}
