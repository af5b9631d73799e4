package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitQuestAPI/internal/apperr"
	modelHabit "habitQuestAPI/internal/habit"
	"habitQuestAPI/services"
	"habitQuestAPI/tests/helpers"
)

// TestCoachAnalyzeContract checks the two promises the analysis
// endpoint makes: zero habits is a client error, and one habit always
// yields a well-formed report even when the remote model is down.
func TestCoachAnalyzeContract(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	habitService := services.NewHabitService(pool)
	coachService := services.NewCoachService(habitService)

	clerkID, _ := createTestUser(t, pool, "coach")
	ctx := context.Background()

	t.Log("zero habits means there is nothing to analyze")
	_, err := coachService.Analyze(ctx, clerkID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNoHabits))

	created, err := habitService.CreateHabit(ctx, clerkID, &modelHabit.CreateHabitRequest{
		Title:    "Read 20 pages",
		Category: modelHabit.CategoryLearning,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	t.Log("an unreachable model degrades to the local report")
	os.Setenv("HUGGINGFACE_API_KEY", "hf_test_key")
	os.Setenv("COACH_API_URL", "http://127.0.0.1:1")
	defer os.Unsetenv("HUGGINGFACE_API_KEY")
	defer os.Unsetenv("COACH_API_URL")

	report, err := coachService.Analyze(ctx, clerkID)
	require.NoError(t, err, "analysis never fails once the user has habits")
	require.NotNil(t, report)

	assert.NotEmpty(t, report.Strengths)
	assert.NotEmpty(t, report.Patterns)
	assert.NotEmpty(t, report.Improvements)
	assert.NotEmpty(t, report.Goals)
	assert.Contains(t, report.Message, "simple report based on your data")
	assert.Contains(t, report.Improvements[0], created.Title, "a fresh habit shows up as an improvement area")

	t.Log("no API key configured degrades the same way")
	os.Unsetenv("HUGGINGFACE_API_KEY")
	report, err = coachService.Analyze(ctx, clerkID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Strengths)
}
