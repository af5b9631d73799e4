package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"habitQuestAPI/internal/apperr"
	"habitQuestAPI/internal/coach"
	"habitQuestAPI/middleware"
)

const (
	defaultCoachEndpoint = "https://router.huggingface.co/v1/chat/completions"
	defaultCoachModel    = "Qwen/Qwen2.5-7B-Instruct"
)

// CoachService produces the AI analysis report. One attempt against the
// remote model; any failure along the way degrades to the deterministic
// local generator, so the endpoint itself never fails once the user has
// habits.
type CoachService struct {
	habits *HabitService
	client *http.Client
}

func NewCoachService(habits *HabitService) *CoachService {
	return &CoachService{
		habits: habits,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []coach.ChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message coach.ChatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze builds the report for the user. A user with zero habits gets
// NoHabits instead of an empty analysis.
func (s *CoachService) Analyze(ctx context.Context, clerkID string) (*coach.AnalysisReport, error) {
	data, err := s.habits.GetHabits(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if len(data.Habits) == 0 {
		return nil, fmt.Errorf("analysis: %w", apperr.ErrNoHabits)
	}

	report, err := s.remoteReport(ctx, coach.BuildSystemPrompt(data.Habits, data.Logs))
	if err != nil {
		log.Printf("Coach: falling back to local report: %v", fmt.Errorf("%w: %v", apperr.ErrRemoteUnavailable, err))
		middleware.CoachFallbacks.Inc()
		return coach.LocalReport(data.Habits, data.Logs), nil
	}
	return report, nil
}

func (s *CoachService) remoteReport(ctx context.Context, prompt string) (*coach.AnalysisReport, error) {
	apiKey := os.Getenv("HUGGINGFACE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("HUGGINGFACE_API_KEY not set")
	}

	endpoint := os.Getenv("COACH_API_URL")
	if endpoint == "" {
		endpoint = defaultCoachEndpoint
	}
	model := os.Getenv("COACH_MODEL")
	if model == "" {
		model = defaultCoachModel
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model: model,
		Messages: []coach.ChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model returned %d: %s", resp.StatusCode, payload)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion has no choices")
	}

	return coach.ParseModelOutput(completion.Choices[0].Message.Content)
}
