package coach

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

// TraceRepo appends immutable observability records. Rows are never updated
// or deleted by the core; retention is an external policy.
type TraceRepo interface {
	Append(dbc dbctx.Context, entry *types.TraceEntry) error
}

type traceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTraceRepo(db *gorm.DB, log *logger.Logger) TraceRepo {
	return &traceRepo{
		db:  db,
		log: log.With("repo", "TraceRepo"),
	}
}

func (r *traceRepo) Append(dbc dbctx.Context, entry *types.TraceEntry) error {
	if entry == nil || entry.TraceID == "" {
		return fmt.Errorf("missing trace entry or trace_id")
	}
	conn := dbc.Tx
	if conn == nil {
		conn = r.db
	}
	return conn.WithContext(dbc.Ctx).Create(entry).Error
}

// UnmetToolRepo appends unmet-tool records for tool-gap analytics.
type UnmetToolRepo interface {
	Append(dbc dbctx.Context, ev *types.UnmetToolEvent) error
}

type unmetToolRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnmetToolRepo(db *gorm.DB, log *logger.Logger) UnmetToolRepo {
	return &unmetToolRepo{
		db:  db,
		log: log.With("repo", "UnmetToolRepo"),
	}
}

func (r *unmetToolRepo) Append(dbc dbctx.Context, ev *types.UnmetToolEvent) error {
	if ev == nil || ev.TraceID == "" {
		return fmt.Errorf("missing unmet tool event or trace_id")
	}
	conn := dbc.Tx
	if conn == nil {
		conn = r.db
	}
	return conn.WithContext(dbc.Ctx).Create(ev).Error
}
