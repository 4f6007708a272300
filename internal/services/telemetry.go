package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/fitlio/coach-backend/internal/data/repos/coach"
	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/requestdata"
)

// UnmetToolArgs describes one fallback turn for tool-gap analytics.
type UnmetToolArgs struct {
	UserID          uuid.UUID
	TraceID         string
	Event           types.Event
	Intent          types.Intent
	HandledManually bool
	Error           error
	Source          string
	ClientEventID   string
}

// TelemetryService records trace stages and unmet-tool events. Everything
// here is fire-and-observe: failures are logged as warnings and swallowed,
// and must never decide the fate of a user-facing reply.
type TelemetryService interface {
	LogTrace(dbc dbctx.Context, traceID, stage string, data any)
	LogUnmetTool(dbc dbctx.Context, args UnmetToolArgs)
}

// UnmetToolRepoFactory builds an unmet-tool repo from ambient request
// context when no explicit handle was wired. Kept as a field so tests can
// observe when the fallback path is taken.
type UnmetToolRepoFactory func(ctx context.Context) repos.UnmetToolRepo

type telemetryService struct {
	log         *logger.Logger
	traces      repos.TraceRepo
	unmet       repos.UnmetToolRepo
	repoFactory UnmetToolRepoFactory
}

// NewTelemetryService wires explicit repo handles. Either repo may be nil:
// traces then degrade to log lines only, and unmet-tool writes resolve a repo
// per call through the ambient factory.
func NewTelemetryService(baseLog *logger.Logger, traces repos.TraceRepo, unmet repos.UnmetToolRepo) TelemetryService {
	log := baseLog.With("service", "TelemetryService")
	return &telemetryService{
		log:         log,
		traces:      traces,
		unmet:       unmet,
		repoFactory: ambientUnmetToolRepo(log),
	}
}

// NewTelemetryServiceWithFactory overrides the ambient fallback, for callers
// that resolve persistence differently (and for tests).
func NewTelemetryServiceWithFactory(baseLog *logger.Logger, traces repos.TraceRepo, unmet repos.UnmetToolRepo, factory UnmetToolRepoFactory) TelemetryService {
	return &telemetryService{
		log:         baseLog.With("service", "TelemetryService"),
		traces:      traces,
		unmet:       unmet,
		repoFactory: factory,
	}
}

// ambientUnmetToolRepo builds a repo from the request-scoped DB handle that
// the auth middleware put on the context. Invocations that pre-wired a repo
// never reach this.
func ambientUnmetToolRepo(log *logger.Logger) UnmetToolRepoFactory {
	return func(ctx context.Context) repos.UnmetToolRepo {
		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.Conn == nil {
			return nil
		}
		return repos.NewUnmetToolRepo(rd.Conn, log)
	}
}

func (s *telemetryService) LogTrace(dbc dbctx.Context, traceID, stage string, data any) {
	// The log line is the minimum observability guarantee; the DB row is
	// best effort on top.
	s.log.Info("trace", "trace_id", traceID, "stage", stage, "data", data)

	if s.traces == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Warn("trace data marshal failed", "trace_id", traceID, "stage", stage, "error", err)
		raw = []byte(`{}`)
	}
	entry := &types.TraceEntry{
		TraceID: traceID,
		Stage:   stage,
		Data:    datatypes.JSON(raw),
	}
	if err := s.traces.Append(dbc, entry); err != nil {
		s.log.Warn("trace append failed", "trace_id", traceID, "stage", stage, "error", err)
	}
}

func (s *telemetryService) LogUnmetTool(dbc dbctx.Context, args UnmetToolArgs) {
	repo := s.unmet
	if repo == nil && s.repoFactory != nil {
		repo = s.repoFactory(dbc.Ctx)
	}
	if repo == nil {
		s.log.Warn("no unmet-tool repo available, event dropped",
			"trace_id", args.TraceID, "client_event_id", args.ClientEventID)
		return
	}

	eventRaw, err := json.Marshal(args.Event)
	if err != nil {
		eventRaw = []byte(`{}`)
	}
	intentRaw, err := json.Marshal(args.Intent)
	if err != nil {
		intentRaw = []byte(`{}`)
	}
	var errStr *string
	if args.Error != nil {
		msg := args.Error.Error()
		errStr = &msg
	}
	row := &types.UnmetToolEvent{
		UserID:          args.UserID,
		TraceID:         args.TraceID,
		Event:           datatypes.JSON(eventRaw),
		Intent:          datatypes.JSON(intentRaw),
		HandledManually: args.HandledManually,
		Error:           errStr,
		Source:          args.Source,
		ClientEventID:   args.ClientEventID,
	}
	if err := repo.Append(dbc, row); err != nil {
		s.log.Warn("unmet tool append failed", "trace_id", args.TraceID, "error", err)
	}
}
