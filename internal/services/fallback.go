package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
)

// TurnFlagsOut are the reply flags returned to the caller of a turn.
type TurnFlagsOut struct {
	UnmetTool bool `json:"unmet_tool"`
	AskedName bool `json:"asked_name,omitempty"`
}

// FallbackDeps are the collaborators of the fallback path. BuildManualAnswer
// is the externally supplied synthesis function; its output becomes the reply
// verbatim. LogTrace may be nil.
type FallbackDeps struct {
	BuildManualAnswer func(ctx context.Context, intent types.Intent, event types.Event) (string, error)
	LogUnmetTool      func(dbc dbctx.Context, args UnmetToolArgs)
	LogTrace          func(dbc dbctx.Context, traceID, stage string, data any)
}

type FallbackOpts struct {
	Source string
}

type FallbackResult struct {
	Reply   string
	Flags   TurnFlagsOut
	TraceID string
}

// Fallback produces a best-effort reply when no structured tool can satisfy
// the request, and records that this happened. The caller decides when to
// invoke it; once invoked it is unconditional. The unmet-tool record is
// fire-and-observe and never aborts the reply; a synthesis failure is the one
// error that propagates, because without it there is no reply at all.
func Fallback(dbc dbctx.Context, userID uuid.UUID, traceID string, event types.Event, intent types.Intent, deps FallbackDeps, opts *FallbackOpts) (FallbackResult, error) {
	source := "coach_orchestrator"
	if opts != nil && opts.Source != "" {
		source = opts.Source
	}

	if deps.LogUnmetTool != nil {
		deps.LogUnmetTool(dbc, UnmetToolArgs{
			UserID:          userID,
			TraceID:         traceID,
			Event:           event,
			Intent:          intent,
			HandledManually: true,
			Error:           nil,
			Source:          source,
			ClientEventID:   event.ClientEventID,
		})
	}

	if deps.LogTrace != nil {
		deps.LogTrace(dbc, traceID, types.StageFallbackLLMOnly, map[string]any{"intent": intent})
	}

	reply, err := deps.BuildManualAnswer(dbc.Ctx, intent, event)
	if err != nil {
		return FallbackResult{}, err
	}

	// An empty reply is passed through unchanged; substituting a default
	// here would hide synthesis regressions from product analytics.
	return FallbackResult{
		Reply:   reply,
		Flags:   TurnFlagsOut{UnmetTool: true},
		TraceID: traceID,
	}, nil
}
