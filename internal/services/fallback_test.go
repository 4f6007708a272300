package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
)

func fallbackEvent() types.Event {
	return types.Event{
		Type:          types.EventTypeText,
		Text:          "wie viel eiweiß brauche ich am tag?",
		ClientEventID: "evt-123",
	}
}

func TestFallback_ReplyAndFlags(t *testing.T) {
	dbc := dbctx.Background()
	userID := uuid.New()
	logged := 0
	var loggedArgs UnmetToolArgs

	deps := FallbackDeps{
		BuildManualAnswer: func(ctx context.Context, intent types.Intent, event types.Event) (string, error) {
			return "Etwa 1,6 bis 2,2 g pro kg Körpergewicht.", nil
		},
		LogUnmetTool: func(dbc dbctx.Context, args UnmetToolArgs) {
			logged++
			loggedArgs = args
		},
	}

	got, err := Fallback(dbc, userID, "trace-1", fallbackEvent(), types.Intent{Name: "nutrition_question", Score: 0.4}, deps, nil)
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if !got.Flags.UnmetTool {
		t.Fatalf("expected unmet_tool flag")
	}
	if got.Reply != "Etwa 1,6 bis 2,2 g pro kg Körpergewicht." {
		t.Fatalf("reply=%q", got.Reply)
	}
	if got.TraceID != "trace-1" {
		t.Fatalf("traceID=%q", got.TraceID)
	}

	// Exactly one unmet-tool record, even without a trace sink.
	if logged != 1 {
		t.Fatalf("logUnmetTool called %d times, want 1", logged)
	}
	if !loggedArgs.HandledManually || loggedArgs.Error != nil {
		t.Fatalf("unexpected unmet-tool args: %+v", loggedArgs)
	}
	if loggedArgs.ClientEventID != "evt-123" {
		t.Fatalf("client_event_id=%q", loggedArgs.ClientEventID)
	}
}

func TestFallback_EmitsTraceStageWhenWired(t *testing.T) {
	dbc := dbctx.Background()
	var stages []string

	deps := FallbackDeps{
		BuildManualAnswer: func(ctx context.Context, intent types.Intent, event types.Event) (string, error) {
			return "ok", nil
		},
		LogUnmetTool: func(dbc dbctx.Context, args UnmetToolArgs) {},
		LogTrace: func(dbc dbctx.Context, traceID, stage string, data any) {
			stages = append(stages, stage)
		},
	}

	if _, err := Fallback(dbc, uuid.New(), "trace-2", fallbackEvent(), types.Intent{}, deps, nil); err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if len(stages) != 1 || stages[0] != types.StageFallbackLLMOnly {
		t.Fatalf("stages=%v", stages)
	}
}

func TestFallback_SynthesisErrorPropagates(t *testing.T) {
	dbc := dbctx.Background()
	wantErr := errors.New("model unavailable")

	deps := FallbackDeps{
		BuildManualAnswer: func(ctx context.Context, intent types.Intent, event types.Event) (string, error) {
			return "", wantErr
		},
		LogUnmetTool: func(dbc dbctx.Context, args UnmetToolArgs) {},
	}

	_, err := Fallback(dbc, uuid.New(), "trace-3", fallbackEvent(), types.Intent{}, deps, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected synthesis error to propagate, got %v", err)
	}
}

func TestFallback_EmptyReplyIsValid(t *testing.T) {
	dbc := dbctx.Background()

	deps := FallbackDeps{
		BuildManualAnswer: func(ctx context.Context, intent types.Intent, event types.Event) (string, error) {
			return "", nil
		},
		LogUnmetTool: func(dbc dbctx.Context, args UnmetToolArgs) {},
	}

	got, err := Fallback(dbc, uuid.New(), "trace-4", fallbackEvent(), types.Intent{}, deps, nil)
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if got.Reply != "" {
		t.Fatalf("empty reply must pass through verbatim, got %q", got.Reply)
	}
	if !got.Flags.UnmetTool {
		t.Fatalf("expected unmet_tool flag")
	}
}

func TestFallback_CustomSource(t *testing.T) {
	dbc := dbctx.Background()
	var gotSource string

	deps := FallbackDeps{
		BuildManualAnswer: func(ctx context.Context, intent types.Intent, event types.Event) (string, error) {
			return "ok", nil
		},
		LogUnmetTool: func(dbc dbctx.Context, args UnmetToolArgs) { gotSource = args.Source },
	}

	if _, err := Fallback(dbc, uuid.New(), "trace-5", fallbackEvent(), types.Intent{}, deps, &FallbackOpts{Source: "tool_dispatch_failed"}); err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if gotSource != "tool_dispatch_failed" {
		t.Fatalf("source=%q", gotSource)
	}
}
