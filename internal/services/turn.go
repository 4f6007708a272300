package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/realtime"
)

// toolScoreThreshold gates the structured path: a tool candidate below this
// confidence goes to the fallback flow instead of dispatch.
const toolScoreThreshold = 0.55

// ProfileNameFunc resolves a display name from the user's profile, outside
// the per-coach identity state. Empty string means no profile name.
type ProfileNameFunc func(ctx context.Context, userID uuid.UUID) string

// TurnResult is what one handled event produces for the caller.
type TurnResult struct {
	Reply   string            `json:"reply"`
	Flags   TurnFlagsOut      `json:"flags"`
	TraceID string            `json:"trace_id"`
	Models  types.ModelChoice `json:"models"`
	Persona string            `json:"persona"`
}

// TurnService is the orchestration boundary: one incoming event in, one
// reply out, with routing, identity, history and telemetry handled inside.
type TurnService interface {
	HandleEvent(dbc dbctx.Context, userID uuid.UUID, coachID string, event types.Event) (TurnResult, error)
}

type turnService struct {
	log         *logger.Logger
	classifier  IntentClassifier
	router      *ModelRouter
	names       NameService
	history     HistoryService
	telemetry   TelemetryService
	dispatcher  ToolDispatcher
	answers     AnswerService
	catalog     *CoachCatalog
	hub         *realtime.Hub
	bus         realtime.Bus
	profileName ProfileNameFunc
}

// TurnServiceDeps lists the collaborators of the orchestrator. Hub, bus and
// ProfileName are optional; everything else is required.
type TurnServiceDeps struct {
	Classifier  IntentClassifier
	Router      *ModelRouter
	Names       NameService
	History     HistoryService
	Telemetry   TelemetryService
	Dispatcher  ToolDispatcher
	Answers     AnswerService
	Catalog     *CoachCatalog
	Hub         *realtime.Hub
	Bus         realtime.Bus
	ProfileName ProfileNameFunc
}

func NewTurnService(baseLog *logger.Logger, deps TurnServiceDeps) TurnService {
	return &turnService{
		log:         baseLog.With("service", "TurnService"),
		classifier:  deps.Classifier,
		router:      deps.Router,
		names:       deps.Names,
		history:     deps.History,
		telemetry:   deps.Telemetry,
		dispatcher:  deps.Dispatcher,
		answers:     deps.Answers,
		catalog:     deps.Catalog,
		hub:         deps.Hub,
		bus:         deps.Bus,
		profileName: deps.ProfileName,
	}
}

func (s *turnService) HandleEvent(dbc dbctx.Context, userID uuid.UUID, coachID string, event types.Event) (TurnResult, error) {
	traceID := uuid.NewString()

	ctx, span := otel.Tracer("fitlio/coach").Start(dbc.Ctx, "coach.turn",
		oteltrace.WithAttributes(
			attribute.String("coach.trace_id", traceID),
			attribute.String("coach.id", coachID),
			attribute.String("coach.event_type", string(event.Type)),
		))
	defer span.End()
	dbc.Ctx = ctx

	persona := s.catalog.Get(coachID)

	var (
		nameState types.NameState
		hist      []types.HistoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	gdbc := dbctx.Context{Ctx: gctx, Tx: dbc.Tx}
	g.Go(func() error {
		nameState = s.names.LoadNameState(gdbc, userID, coachID)
		return nil
	})
	g.Go(func() error {
		hist = s.history.Load(gdbc, userID, coachID)
		return nil
	})
	// Both loads degrade to zero values internally; the group never errors.
	_ = g.Wait()

	resolution := ResolveUserName(nameState, s.profileGetter(ctx, userID))

	intent, err := s.classifier.Classify(ctx, event)
	if err != nil {
		s.log.Warn("intent classification failed, continuing without tool path",
			"trace_id", traceID, "error", err)
		intent = types.Intent{Name: "unknown", Score: 0}
	}
	s.telemetry.LogTrace(dbc, traceID, types.StageIntentClassified, map[string]any{"intent": intent})

	flags := turnFlagsFromEvent(event)
	choice := s.router.ChooseModels(flags)
	s.telemetry.LogTrace(dbc, traceID, types.StageModelsChosen, map[string]any{
		"chat":  choice.Chat,
		"tools": choice.Tools,
		"flags": flags,
	})

	synth := func(ctx context.Context, intent types.Intent, event types.Event) (string, error) {
		return s.answers.BuildManualAnswer(ctx, ManualAnswerInput{
			Persona:  persona,
			UserName: resolution.Name,
			Model:    choice.Chat,
			Params:   ModelParameters(choice.Chat),
			History:  hist,
			Intent:   intent,
			Event:    event,
		})
	}

	var (
		reply  string
		flagsO TurnFlagsOut
	)
	switch {
	case intent.ToolCandidate != "" && intent.Score >= toolScoreThreshold:
		result, dispatchErr := s.dispatcher.Dispatch(ctx, userID, event, intent)
		if dispatchErr == nil {
			s.telemetry.LogTrace(dbc, traceID, types.StageToolDispatched, map[string]any{
				"tool": result.Tool,
				"args": jsonArgsForLog(result.Args),
			})
			reply = result.Reply
			break
		}
		s.log.Warn("tool dispatch failed, falling back",
			"trace_id", traceID, "tool", intent.ToolCandidate, "error", dispatchErr)
		fb, fbErr := Fallback(dbc, userID, traceID, event, intent, FallbackDeps{
			BuildManualAnswer: synth,
			LogUnmetTool: func(dbc dbctx.Context, args UnmetToolArgs) {
				args.Error = dispatchErr
				s.telemetry.LogUnmetTool(dbc, args)
			},
			LogTrace: s.telemetry.LogTrace,
		}, &FallbackOpts{Source: "tool_dispatch_failed"})
		if fbErr != nil {
			return TurnResult{}, fbErr
		}
		reply, flagsO = fb.Reply, fb.Flags

	default:
		fb, fbErr := Fallback(dbc, userID, traceID, event, intent, FallbackDeps{
			BuildManualAnswer: synth,
			LogUnmetTool:      s.telemetry.LogUnmetTool,
			LogTrace:          s.telemetry.LogTrace,
		}, nil)
		if fbErr != nil {
			return TurnResult{}, fbErr
		}
		reply, flagsO = fb.Reply, fb.Flags
	}

	if resolution.Ask {
		if reply == "" {
			reply = resolution.AskText
		} else {
			reply = resolution.AskText + "\n\n" + reply
		}
		flagsO.AskedName = true
		if resolution.SetAskedAt {
			s.names.PersistNameAsked(dbc, userID, coachID)
		}
		s.publish(ctx, realtime.Message{
			Channel: realtime.UserChannel(userID),
			Event:   realtime.EventNameAsked,
			Data:    map[string]any{"coach_id": coachID},
		})
	}

	if reply != "" {
		hist = append(hist, types.HistoryItem{
			Text: reply,
			TS:   time.Now().Unix(),
			Kind: types.HistoryKindShort,
		})
		s.history.Save(dbc, userID, hist, coachID)
	}

	s.telemetry.LogTrace(dbc, traceID, types.StageTurnDone, map[string]any{
		"unmet_tool": flagsO.UnmetTool,
		"asked_name": flagsO.AskedName,
		"chat_model": choice.Chat,
	})

	s.publish(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventCoachReply,
		Data: map[string]any{
			"reply":           reply,
			"flags":           flagsO,
			"trace_id":        traceID,
			"coach_id":        coachID,
			"client_event_id": event.ClientEventID,
		},
	})

	return TurnResult{
		Reply:   reply,
		Flags:   flagsO,
		TraceID: traceID,
		Models:  choice,
		Persona: persona.ID,
	}, nil
}

func (s *turnService) publish(ctx context.Context, msg realtime.Message) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn("bus publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
		}
	}
}

func (s *turnService) profileGetter(ctx context.Context, userID uuid.UUID) func() string {
	if s.profileName == nil {
		return nil
	}
	return func() string { return s.profileName(ctx, userID) }
}

// turnFlagsFromEvent derives routing flags from the event. Clients may hint
// cost sensitivity and reasoning need through the event context; depth signals
// feed the high-fidelity heuristic.
func turnFlagsFromEvent(event types.Event) TurnFlags {
	tc := TurnContext{
		ActiveGoals:      intFromContext(event.Context, "active_goals"),
		CaloricDeviation: floatFromContext(event.Context, "caloric_deviation"),
	}
	return TurnFlags{
		CostSensitive:     boolFromContext(event.Context, "cost_sensitive"),
		RequiresReasoning: boolFromContext(event.Context, "requires_reasoning"),
		HighFidelity:      ShouldUseHighFidelity(event.Text, tc),
	}
}

func boolFromContext(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

func intFromContext(m map[string]any, key string) int {
	return int(floatFromContext(m, key))
}

func floatFromContext(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
