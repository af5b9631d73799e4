package services

import (
	"context"
	"time"

	"habitQuestAPI/internal/insight"
)

// InsightService feeds the pure rule engine with the user's habit data.
type InsightService struct {
	habits *HabitService
}

func NewInsightService(habits *HabitService) *InsightService {
	return &InsightService{habits: habits}
}

func (s *InsightService) GetInsights(ctx context.Context, clerkID string) ([]insight.Insight, error) {
	data, err := s.habits.GetHabits(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return insight.Generate(data.Habits, data.Logs, time.Now().UTC()), nil
}
