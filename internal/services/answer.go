package services

import (
	"context"
	"fmt"
	"strings"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

// ManualAnswerInput carries everything the synthesizer needs for one reply:
// the persona voice, the turn's chat model with its request parameters, the
// rolling history window for anti-repetition and the classified intent.
type ManualAnswerInput struct {
	Persona  CoachPersona
	UserName *string
	Model    string
	Params   types.ModelParams
	History  []types.HistoryItem
	Intent   types.Intent
	Event    types.Event
}

// AnswerService composes the free-text reply for the fallback path.
type AnswerService interface {
	BuildManualAnswer(ctx context.Context, in ManualAnswerInput) (string, error)
}

type answerService struct {
	log *logger.Logger
	ai  AIClient
}

func NewAnswerService(baseLog *logger.Logger, ai AIClient) AnswerService {
	return &answerService{
		log: baseLog.With("service", "AnswerService"),
		ai:  ai,
	}
}

func (s *answerService) BuildManualAnswer(ctx context.Context, in ManualAnswerInput) (string, error) {
	if s.ai == nil {
		return "", fmt.Errorf("no AI client wired")
	}

	system := strings.TrimSpace(in.Persona.SystemPrompt)
	if system == "" {
		system = defaultPersona().SystemPrompt
	}
	if in.UserName != nil && strings.TrimSpace(*in.UserName) != "" {
		system += "\nDer Nutzer möchte mit \"" + strings.TrimSpace(*in.UserName) + "\" angesprochen werden."
	}
	system += "\nWiederhole keine Aussagen aus den letzten Antworten."

	var sb strings.Builder
	if len(in.History) > 0 {
		sb.WriteString("LETZTE_ANTWORTEN:\n")
		for _, item := range in.History {
			sb.WriteString("- ")
			sb.WriteString(strings.TrimSpace(item.Text))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if in.Intent.Name != "" && in.Intent.Name != "unknown" {
		sb.WriteString("ERKANNTE_ABSICHT: " + in.Intent.Name + "\n\n")
	}
	sb.WriteString("NACHRICHT:\n")
	sb.WriteString(strings.TrimSpace(in.Event.Text))

	reply, err := s.ai.GenerateText(ctx, in.Model, in.Params, system, sb.String())
	if err != nil {
		return "", fmt.Errorf("manual answer synthesis: %w", err)
	}
	// Verbatim, including an empty string; the fallback flow passes it on.
	return reply, nil
}
