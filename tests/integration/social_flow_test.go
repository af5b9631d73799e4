package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitQuestAPI/services"
	"habitQuestAPI/tests/helpers"
)

// TestChallengeJoinLeaveFlow toggles membership twice and checks the
// feed side effects.
func TestChallengeJoinLeaveFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	socialService := services.NewSocialService(pool)
	clerkID, u := createTestUser(t, pool, "social")
	ctx := context.Background()

	challenges, err := socialService.GetChallenges(ctx, clerkID)
	require.NoError(t, err)
	require.NotEmpty(t, challenges, "an empty catalog is seeded with defaults")
	for _, c := range challenges {
		assert.False(t, c.HasJoined)
	}

	target := challenges[0]

	joined, err := socialService.JoinChallenge(ctx, clerkID, target.ID)
	require.NoError(t, err)
	assert.True(t, joined.Joined)
	assert.Equal(t, target.ParticipantCount+1, joined.Count)

	var feedEntries int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id = $1 AND type = 'CHALLENGE_JOIN'`, u.ID).Scan(&feedEntries)
	require.NoError(t, err)
	assert.Equal(t, 1, feedEntries)

	left, err := socialService.JoinChallenge(ctx, clerkID, target.ID)
	require.NoError(t, err)
	assert.False(t, left.Joined)
	assert.Equal(t, target.ParticipantCount, left.Count)

	t.Log("leaving does not add a second feed entry")
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id = $1 AND type = 'CHALLENGE_JOIN'`, u.ID).Scan(&feedEntries)
	require.NoError(t, err)
	assert.Equal(t, 1, feedEntries)
}

// TestFeedLikeToggle likes and unlikes a feed entry.
func TestFeedLikeToggle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	socialService := services.NewSocialService(pool)
	ledger := services.NewGamificationService(pool)

	authorClerkID, author := createTestUser(t, pool, "feedauthor")
	likerClerkID, _ := createTestUser(t, pool, "feedliker")
	ctx := context.Background()

	// A level-up gives the feed something to like.
	_, err := pool.Exec(ctx, `UPDATE users SET xp = 95 WHERE id = $1`, author.ID)
	require.NoError(t, err)
	_, err = ledger.Award(ctx, author.ID, 10)
	require.NoError(t, err)

	feed, err := socialService.GetFeed(ctx, authorClerkID)
	require.NoError(t, err)
	require.NotEmpty(t, feed)

	var entryID = feed[0].ID
	for _, e := range feed {
		if e.UserID == author.ID {
			entryID = e.ID
			break
		}
	}

	liked, err := socialService.ToggleLike(ctx, likerClerkID, entryID)
	require.NoError(t, err)
	assert.True(t, liked)

	likerView, err := socialService.GetFeed(ctx, likerClerkID)
	require.NoError(t, err)
	for _, e := range likerView {
		if e.ID == entryID {
			assert.Equal(t, 1, e.Likes)
			assert.True(t, e.LikedByMe)
		}
	}

	authorView, err := socialService.GetFeed(ctx, authorClerkID)
	require.NoError(t, err)
	for _, e := range authorView {
		if e.ID == entryID {
			assert.Equal(t, 1, e.Likes)
			assert.False(t, e.LikedByMe, "likes are per user")
		}
	}

	unliked, err := socialService.ToggleLike(ctx, likerClerkID, entryID)
	require.NoError(t, err)
	assert.False(t, unliked)
}
