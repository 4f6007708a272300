package services

import (
	"context"
	"encoding/json"
	"strings"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/utils"
)

// IntentClassifier turns an incoming event into the classifier's best guess.
// "Nothing matched" is an ordinary low-score Intent, never an error.
type IntentClassifier interface {
	Classify(ctx context.Context, event types.Event) (types.Intent, error)
}

type llmIntentClassifier struct {
	log   *logger.Logger
	ai    AIClient
	model string
}

func NewLLMIntentClassifier(baseLog *logger.Logger, ai AIClient) IntentClassifier {
	log := baseLog.With("service", "IntentClassifier")
	return &llmIntentClassifier{
		log:   log,
		ai:    ai,
		model: utils.GetEnv("COACH_MODEL_TOOLS", "gpt-4.1-mini", log),
	}
}

func (c *llmIntentClassifier) Classify(ctx context.Context, event types.Event) (types.Intent, error) {
	none := types.Intent{Name: "unknown", Score: 0}
	text := strings.TrimSpace(event.Text)
	if event.Type != types.EventTypeText || text == "" {
		return none, nil
	}

	tools := AllowedCoachTools()
	toolJSON := "[]"
	if b, err := json.Marshal(tools); err == nil {
		toolJSON = string(b)
	}

	system := strings.TrimSpace(strings.Join([]string{
		"You classify user messages for a German fitness coaching product.",
		"Name the user's intent and decide whether one of the allowed structured tools can satisfy it directly.",
		"tool_candidate must be a name from the allowed list, or empty when no tool applies.",
		"Questions, chit-chat and requests for advice get an empty tool_candidate.",
		"score is your confidence in the intent, 0..1. When unsure, use a low score and an empty tool_candidate.",
		"Return ONLY JSON matching the schema.",
	}, "\n"))

	user := strings.TrimSpace(strings.Join([]string{
		"USER_MESSAGE:",
		text,
		"",
		"ALLOWED_TOOLS:",
		toolJSON,
	}, "\n"))

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"tool_candidate": map[string]any{
				"type": "string",
				"enum": toolNamesForSchema(),
			},
		},
		"required": []any{"name", "score", "tool_candidate"},
	}

	obj, err := c.ai.GenerateJSON(ctx, c.model, "coach_intent_v1", schema, system, user)
	if err != nil {
		return none, err
	}

	var out types.Intent
	b, _ := json.Marshal(obj)
	_ = json.Unmarshal(b, &out)
	out.Name = strings.TrimSpace(strings.ToLower(out.Name))
	if out.Name == "" {
		out.Name = "unknown"
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	out.ToolCandidate = strings.TrimSpace(out.ToolCandidate)
	return out, nil
}

func toolNamesForSchema() []any {
	tools := AllowedCoachTools()
	out := make([]any, 0, len(tools)+1)
	// empty string = no tool applies
	out = append(out, "")
	for _, t := range tools {
		out = append(out, t.Name)
	}
	return out
}
