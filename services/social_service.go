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
	"habitQuestAPI/internal/challenge"
)

type SocialService struct {
	db *pgxpool.Pool
}

func NewSocialService(db *pgxpool.Pool) *SocialService {
	return &SocialService{db: db}
}

func (s *SocialService) userByClerkID(ctx context.Context, clerkID string) (uuid.UUID, string, error) {
	var userID uuid.UUID
	var name string
	err := s.db.QueryRow(ctx, `SELECT id, name FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return uuid.Nil, "", fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, name, nil
}

// GetFeed returns the latest 50 feed entries with like counts and the
// requesting user's like state.
func (s *SocialService) GetFeed(ctx context.Context, clerkID string) ([]*activity.Entry, error) {
	userID, _, err := s.userByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT a.id, a.user_id, a.user_name, a.type, a.message, a.target_id, a.created_at,
	       COUNT(al.user_id) AS likes,
	       BOOL_OR(al.user_id = $1) AS liked_by_me
	FROM activities a
	LEFT JOIN activity_likes al ON al.activity_id = a.id
	GROUP BY a.id
	ORDER BY a.created_at DESC
	LIMIT 50
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer rows.Close()

	feed := []*activity.Entry{}
	for rows.Next() {
		e := &activity.Entry{}
		var likedByMe *bool
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.UserName,
			&e.Type,
			&e.Message,
			&e.TargetID,
			&e.CreatedAt,
			&e.Likes,
			&likedByMe,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed entry: %w", err)
		}
		e.LikedByMe = likedByMe != nil && *likedByMe
		feed = append(feed, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed: %w", err)
	}

	return feed, nil
}

// ToggleLike flips the requesting user's like on a feed entry.
func (s *SocialService) ToggleLike(ctx context.Context, clerkID string, activityID uuid.UUID) (liked bool, err error) {
	userID, _, err := s.userByClerkID(ctx, clerkID)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM activities WHERE id = $1)`, activityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check activity: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("activity %s: %w", activityID, apperr.ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM activity_likes WHERE activity_id = $1 AND user_id = $2`, activityID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.db.Exec(ctx, `
	INSERT INTO activity_likes (activity_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (activity_id, user_id) DO NOTHING
	`, activityID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like: %w", err)
	}
	return true, nil
}

var defaultChallenges = []challenge.CreateChallengeRequest{
	{Title: "LeetCode Streak", Description: "Solve 1 DSA problem daily", Category: challenge.CategoryAcademic, DurationDays: 100, Icon: "/assets/3d/productivity.png"},
	{Title: "Deep Work: 4H", Description: "4 Hours of focused study/work", Category: challenge.CategoryProductivity, DurationDays: 30, Icon: "/assets/3d/mindfulness.png"},
	{Title: "No All-Nighter", Description: "Sleep before 1 AM every night", Category: challenge.CategoryHealth, DurationDays: 21, Icon: "/assets/3d/fitness.png"},
	{Title: "Campus Networking", Description: "Meet 1 new person every week", Category: challenge.CategorySocial, DurationDays: 60, Icon: "🤝"},
}

// GetChallenges lists challenges ordered by popularity, decorated with
// the user's membership. An empty table is seeded with the defaults
// first.
func (s *SocialService) GetChallenges(ctx context.Context, clerkID string) ([]*challenge.WithStatus, error) {
	userID, _, err := s.userByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM challenges`).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}
	if count == 0 {
		log.Println("No challenges found, seeding defaults")
		for i := range defaultChallenges {
			if _, err := s.CreateChallenge(ctx, nil, &defaultChallenges[i]); err != nil {
				return nil, fmt.Errorf("failed to seed challenges: %w", err)
			}
		}
	}

	rows, err := s.db.Query(ctx, `
	SELECT c.id, c.title, c.description, c.category, c.duration_days, c.icon, c.created_by, c.created_at,
	       COUNT(cp.user_id) AS participant_count,
	       BOOL_OR(cp.user_id = $1) AS has_joined
	FROM challenges c
	LEFT JOIN challenge_participants cp ON cp.challenge_id = c.id
	GROUP BY c.id
	ORDER BY participant_count DESC, c.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	challenges := []*challenge.WithStatus{}
	for rows.Next() {
		c := &challenge.WithStatus{}
		var hasJoined *bool
		err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.Category,
			&c.DurationDays,
			&c.Icon,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.ParticipantCount,
			&hasJoined,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		c.HasJoined = hasJoined != nil && *hasJoined
		challenges = append(challenges, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

// CreateChallenge inserts a challenge; createdBy is nil for seeded
// defaults.
func (s *SocialService) CreateChallenge(ctx context.Context, createdBy *uuid.UUID, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	c := &challenge.Challenge{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		DurationDays: req.DurationDays,
		Icon:         req.Icon,
		CreatedBy:    createdBy,
	}
	if c.Icon == "" {
		c.Icon = "🏆"
	}

	err := s.db.QueryRow(ctx, `
	INSERT INTO challenges (id, title, description, category, duration_days, icon, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	RETURNING created_at
	`, c.ID, c.Title, c.Description, c.Category, c.DurationDays, c.Icon, c.CreatedBy).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return c, nil
}

// CreateUserChallenge creates a challenge attributed to the requesting
// user.
func (s *SocialService) CreateUserChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	userID, _, err := s.userByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return s.CreateChallenge(ctx, &userID, req)
}

// JoinChallenge toggles membership. Joining appends a CHALLENGE_JOIN
// feed entry; leaving is silent, mirroring how the feed treats joins
// as the social event.
func (s *SocialService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.JoinResult, error) {
	userID, userName, err := s.userByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var title string
	err = s.db.QueryRow(ctx, `SELECT title FROM challenges WHERE id = $1`, challengeID).Scan(&title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge %s: %w", challengeID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	joined := false
	tag, err := s.db.Exec(ctx, `
	DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2
	`, challengeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave challenge: %w", err)
	}

	if tag.RowsAffected() == 0 {
		_, err = s.db.Exec(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (challenge_id, user_id) DO NOTHING
		`, challengeID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to join challenge: %w", err)
		}
		joined = true

		if userName == "" {
			userName = "Anonymous"
		}
		_, err = s.db.Exec(ctx, `
		INSERT INTO activities (id, user_id, user_name, type, message, target_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, uuid.New(), userID, userName, activity.TypeChallengeJoin, fmt.Sprintf("joined the %s", title), challengeID)
		if err != nil {
			log.Printf("JoinChallenge: failed to append activity: %v", err)
		}
	}

	var count int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = $1`, challengeID).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	return &challenge.JoinResult{ID: challengeID, Joined: joined, Count: count}, nil
}
