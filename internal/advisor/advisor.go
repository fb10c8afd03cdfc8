// Package advisor turns recent workouts into a prompt and asks a
// text-generation backend for tips and the next workout.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/briangreenhill/sheetcoach/internal/workout"
)

// Completer is a text-generation backend
type Completer interface {
	// Name returns the backend name (e.g., "openai", "gemini")
	Name() string

	// Complete sends a system and user prompt and returns the completion text
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Advisor asks a Completer for the next workout
type Advisor struct {
	Completer Completer
	System    string
}

// Advise builds the prompt for entries and returns the completion verbatim.
func (a Advisor) Advise(ctx context.Context, entries []workout.Entry) (string, error) {
	text, err := a.Completer.Complete(ctx, a.System, BuildPrompt(entries))
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", a.Completer.Name(), err)
	}
	return text, nil
}

type promptWorkout struct {
	Date    string `json:"date"`
	Workout string `json:"workout"`
	Notes   string `json:"notes"`
}

// BuildPrompt formats entries into the user prompt.
func BuildPrompt(entries []workout.Entry) string {
	list := make([]promptWorkout, len(entries))
	for i, e := range entries {
		list[i] = promptWorkout{Date: e.Date, Workout: e.Description, Notes: e.Notes}
	}
	data, _ := json.Marshal(list)

	var b strings.Builder
	b.WriteString("You are a practical fitness coach. Analyze these recent workouts and respond with JSON only.\n")
	b.WriteString("Return object keys: tips (string), next_workout (string).\n")
	b.WriteString("Recent workouts: ")
	b.Write(data)
	return b.String()
}

// Plan is the structured form of a completion
type Plan struct {
	Tips        string `json:"tips"`
	NextWorkout string `json:"next_workout"`
}

// ParsePlan decodes a completion that follows the JSON contract in the
// prompt. Markdown code fences around the object are tolerated.
func ParsePlan(text string) (Plan, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var p Plan
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Plan{}, false
	}
	p.Tips = strings.TrimSpace(p.Tips)
	p.NextWorkout = strings.TrimSpace(p.NextWorkout)
	if p.Tips == "" && p.NextWorkout == "" {
		return Plan{}, false
	}
	return p, true
}
