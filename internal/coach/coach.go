package coach

import (
	"encoding/json"
	"fmt"
	"strings"

	"habitQuestAPI/internal/habit"
)

// AnalysisReport is the structured coaching feedback returned to the
// client, whether it came from the remote model or the local fallback.
type AnalysisReport struct {
	Strengths    []string `json:"strengths"`
	Patterns     []string `json:"patterns"`
	Improvements []string `json:"improvements"`
	Goals        []string `json:"goals"`
	Message      string   `json:"message"`
}

// ChatMessage is a role-tagged message for the remote model API
// (OpenAI-compatible chat completions).
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildSystemPrompt formats the user's habit data into the instruction
// that demands raw-JSON-only output from the model.
func BuildSystemPrompt(habits []*habit.Habit, logs []*habit.Log) string {
	totalCompletions := 0
	perHabit := make(map[string]int)
	for _, l := range logs {
		if l.Completed {
			totalCompletions++
		}
		perHabit[l.HabitID.String()]++
	}

	var summary strings.Builder
	for _, h := range habits {
		fmt.Fprintf(&summary, "- %s: Streak %d, Total Completed %d, Time: %s\n",
			h.Title, h.Streak, perHabit[h.ID.String()], h.TimeOfDay)
	}

	return fmt.Sprintf(`You are an AI Habit Coach. Output ONLY valid JSON.
Analyze this user data:
Total Completions: %d
Habits:
%s
Structure your response exactly like this JSON:
{
  "strengths": ["point 1", "point 2"],
  "patterns": ["point 1", "point 2"],
  "improvements": ["point 1", "point 2"],
  "goals": ["goal 1", "goal 2"],
  "message": "Short motivational message"
}`, totalCompletions, summary.String())
}

// ParseModelOutput extracts the report from free-form model text. The
// output is untrusted: code fences are stripped and only the substring
// between the first '{' and the last '}' is parsed.
func ParseModelOutput(text string) (*AnalysisReport, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	text = text[start : end+1]

	var report AnalysisReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	return &report, nil
}

// LocalReport is the deterministic fallback generator. It has no
// external dependency and no error path: given at least one habit it
// always produces a well-formed report.
func LocalReport(habits []*habit.Habit, logs []*habit.Log) *AnalysisReport {
	perHabit := make(map[string]int)
	for _, l := range logs {
		perHabit[l.HabitID.String()]++
	}

	var strengths, improvements []string
	for _, h := range habits {
		switch {
		case h.Streak > 3:
			strengths = append(strengths, fmt.Sprintf("Strong consistency with '%s' (%d day streak!)", h.Title, h.Streak))
		case perHabit[h.ID.String()] > 5:
			strengths = append(strengths, fmt.Sprintf("Good tracking of '%s'", h.Title))
		default:
			improvements = append(improvements, fmt.Sprintf("Try to focus more on '%s'", h.Title))
		}
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "You're just getting started!")
	}
	if len(improvements) == 0 {
		improvements = append(improvements, "You're doing fantastic!")
	}
	if len(strengths) > 3 {
		strengths = strengths[:3]
	}
	if len(improvements) > 3 {
		improvements = improvements[:3]
	}

	return &AnalysisReport{
		Strengths:    strengths,
		Patterns:     []string{"Consistency builds over time", "Focus on one day at a time"},
		Improvements: improvements,
		Goals:        []string{"Complete all habits tomorrow", "Extend your longest streak by 1 day"},
		Message:      "I'm having trouble connecting to my AI brain right now, but here is a simple report based on your data. Keep going!",
	}
}
