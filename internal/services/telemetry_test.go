package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	repos "github.com/fitlio/coach-backend/internal/data/repos/coach"
	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
)

type fakeTraceRepo struct {
	entries []*types.TraceEntry
	fail    bool
}

func (f *fakeTraceRepo) Append(dbc dbctx.Context, entry *types.TraceEntry) error {
	if f.fail {
		return fmt.Errorf("simulated trace failure")
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeUnmetToolRepo struct {
	events []*types.UnmetToolEvent
	fail   bool
}

func (f *fakeUnmetToolRepo) Append(dbc dbctx.Context, ev *types.UnmetToolEvent) error {
	if f.fail {
		return fmt.Errorf("simulated unmet-tool failure")
	}
	f.events = append(f.events, ev)
	return nil
}

func TestTelemetryService_LogTrace(t *testing.T) {
	traces := &fakeTraceRepo{}
	svc := NewTelemetryService(testLogger(t), traces, &fakeUnmetToolRepo{})
	dbc := dbctx.Background()

	svc.LogTrace(dbc, "trace-1", types.StageIntentClassified, map[string]any{"intent": "log_meal"})

	if len(traces.entries) != 1 {
		t.Fatalf("expected 1 trace entry, got %d", len(traces.entries))
	}
	if traces.entries[0].Stage != types.StageIntentClassified {
		t.Fatalf("stage=%q", traces.entries[0].Stage)
	}
}

func TestTelemetryService_FailuresAreSwallowed(t *testing.T) {
	traces := &fakeTraceRepo{fail: true}
	unmet := &fakeUnmetToolRepo{fail: true}
	svc := NewTelemetryService(testLogger(t), traces, unmet)
	dbc := dbctx.Background()

	// Neither call may panic or surface an error.
	svc.LogTrace(dbc, "trace-1", types.StageTurnDone, nil)
	svc.LogUnmetTool(dbc, UnmetToolArgs{UserID: uuid.New(), TraceID: "trace-1"})
}

func TestTelemetryService_ExplicitRepoSkipsFactory(t *testing.T) {
	unmet := &fakeUnmetToolRepo{}
	factoryCalled := false
	svc := NewTelemetryServiceWithFactory(testLogger(t), nil, unmet, func(ctx context.Context) repos.UnmetToolRepo {
		factoryCalled = true
		return nil
	})
	dbc := dbctx.Background()

	svc.LogUnmetTool(dbc, UnmetToolArgs{UserID: uuid.New(), TraceID: "trace-2", ClientEventID: "c1"})

	if factoryCalled {
		t.Fatalf("factory must not be consulted when a repo handle was wired")
	}
	if len(unmet.events) != 1 {
		t.Fatalf("expected 1 unmet-tool event, got %d", len(unmet.events))
	}
	if unmet.events[0].ClientEventID != "c1" {
		t.Fatalf("client_event_id=%q", unmet.events[0].ClientEventID)
	}
}

func TestTelemetryService_AmbientFactoryFallback(t *testing.T) {
	unmet := &fakeUnmetToolRepo{}
	svc := NewTelemetryServiceWithFactory(testLogger(t), nil, nil, func(ctx context.Context) repos.UnmetToolRepo {
		return unmet
	})
	dbc := dbctx.Background()

	svc.LogUnmetTool(dbc, UnmetToolArgs{UserID: uuid.New(), TraceID: "trace-3", Error: fmt.Errorf("dispatch blew up")})

	if len(unmet.events) != 1 {
		t.Fatalf("expected 1 unmet-tool event via ambient factory, got %d", len(unmet.events))
	}
	if unmet.events[0].Error == nil || *unmet.events[0].Error != "dispatch blew up" {
		t.Fatalf("error not recorded: %+v", unmet.events[0].Error)
	}
}

func TestTelemetryService_NoRepoNoFactoryDropsQuietly(t *testing.T) {
	svc := NewTelemetryServiceWithFactory(testLogger(t), nil, nil, nil)
	svc.LogUnmetTool(dbctx.Background(), UnmetToolArgs{UserID: uuid.New(), TraceID: "trace-4"})
}
