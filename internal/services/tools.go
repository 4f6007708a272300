package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/realtime"
	"github.com/fitlio/coach-backend/internal/utils"
)

// ToolSpec describes one structured action the coach can trigger instead of
// a free-text reply. The actual entry forms and persistence live in the
// product surface, not here; this layer only extracts arguments and signals
// the client.
type ToolSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required_args"`
	Optional    []string `json:"optional_args"`
}

func AllowedCoachTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "log_meal",
			Description: "Log a meal the user just described (food items, rough amounts).",
			Required:    []string{"description"},
			Optional:    []string{"meal_type", "calories"},
		},
		{
			Name:        "log_workout",
			Description: "Log a workout the user completed.",
			Required:    []string{"activity"},
			Optional:    []string{"duration_minutes", "intensity"},
		},
		{
			Name:        "log_supplement",
			Description: "Log a supplement intake.",
			Required:    []string{"supplement"},
			Optional:    []string{"dose"},
		},
		{
			Name:        "log_weight",
			Description: "Log the user's current body weight.",
			Required:    []string{"weight_kg"},
			Optional:    []string{},
		},
	}
}

// ToolResult is what a successful dispatch hands back to the orchestrator.
type ToolResult struct {
	Tool  string
	Args  map[string]any
	Reply string
}

// ToolDispatcher executes the structured path for an intent whose
// tool_candidate matched. Implementations may fail; the orchestrator then
// falls back to a manual answer.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, event types.Event, intent types.Intent) (ToolResult, error)
}

type llmToolDispatcher struct {
	log   *logger.Logger
	ai    AIClient
	hub   *realtime.Hub
	bus   realtime.Bus
	model string
}

// NewLLMToolDispatcher extracts tool arguments with the per-turn extraction
// model and pushes a quick-add trigger to the user's clients. bus may be nil
// in single-instance deployments.
func NewLLMToolDispatcher(baseLog *logger.Logger, ai AIClient, hub *realtime.Hub, bus realtime.Bus) ToolDispatcher {
	log := baseLog.With("service", "ToolDispatcher")
	return &llmToolDispatcher{
		log:   log,
		ai:    ai,
		hub:   hub,
		bus:   bus,
		model: utils.GetEnv("COACH_MODEL_TOOLS", "gpt-4.1-mini", log),
	}
}

func findToolSpec(name string) *ToolSpec {
	for _, t := range AllowedCoachTools() {
		if t.Name == name {
			return &t
		}
	}
	return nil
}

func (d *llmToolDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, event types.Event, intent types.Intent) (ToolResult, error) {
	spec := findToolSpec(intent.ToolCandidate)
	if spec == nil {
		return ToolResult{}, fmt.Errorf("unknown tool candidate %q", intent.ToolCandidate)
	}

	args, err := d.extractArgs(ctx, *spec, event)
	if err != nil {
		return ToolResult{}, fmt.Errorf("extract args for %s: %w", spec.Name, err)
	}
	for _, required := range spec.Required {
		if _, ok := args[required]; !ok {
			return ToolResult{}, fmt.Errorf("tool %s missing required arg %q", spec.Name, required)
		}
	}

	msg := realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventQuickAddTrigger,
		Data: map[string]any{
			"tool":            spec.Name,
			"args":            args,
			"client_event_id": event.ClientEventID,
		},
	}
	d.hub.Broadcast(msg)
	if d.bus != nil {
		if err := d.bus.Publish(ctx, msg); err != nil {
			d.log.Warn("quick-add bus publish failed", "tool", spec.Name, "error", err)
		}
	}

	return ToolResult{
		Tool:  spec.Name,
		Args:  args,
		Reply: confirmationReply(spec.Name),
	}, nil
}

func (d *llmToolDispatcher) extractArgs(ctx context.Context, spec ToolSpec, event types.Event) (map[string]any, error) {
	props := map[string]any{}
	required := make([]any, 0, len(spec.Required))
	for _, a := range spec.Required {
		props[a] = map[string]any{}
		required = append(required, a)
	}
	for _, a := range spec.Optional {
		props[a] = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}

	system := strings.TrimSpace(strings.Join([]string{
		"You extract structured arguments for the tool '" + spec.Name + "' from a user message.",
		spec.Description,
		"Use the user's own wording for free-text fields. Return ONLY JSON matching the schema.",
	}, "\n"))

	return d.ai.GenerateJSON(ctx, d.model, "coach_tool_args_v1", schema, system, strings.TrimSpace(event.Text))
}

func confirmationReply(tool string) string {
	switch tool {
	case "log_meal":
		return "Alles klar, ich habe deine Mahlzeit vorbereitet – bestätige kurz den Eintrag."
	case "log_workout":
		return "Stark! Dein Workout ist vorbereitet – bestätige kurz den Eintrag."
	case "log_supplement":
		return "Notiert, dein Supplement ist vorbereitet – bestätige kurz den Eintrag."
	case "log_weight":
		return "Danke, dein Gewicht ist vorbereitet – bestätige kurz den Eintrag."
	default:
		return "Erledigt – bestätige kurz den Eintrag."
	}
}

// jsonArgsForLog trims large arg maps for trace records.
func jsonArgsForLog(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
