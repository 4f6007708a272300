package coach

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TraceEntry is one immutable observability record. All entries for a single
// conversational turn share a caller-supplied trace ID.
type TraceEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraceID   string         `gorm:"column:trace_id;not null;index" json:"trace_id"`
	Stage     string         `gorm:"column:stage;not null" json:"stage"`
	Data      datatypes.JSON `gorm:"type:jsonb;column:data" json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (TraceEntry) TableName() string { return "coach_trace" }

// Trace stages emitted by the orchestration pipeline.
const (
	StageIntentClassified = "intent_classified"
	StageModelsChosen     = "models_chosen"
	StageToolDispatched   = "tool_dispatched"
	StageFallbackLLMOnly  = "fallback_llm_only"
	StageTurnDone         = "turn_done"
)

// UnmetToolEvent records a turn that no structured tool could satisfy. Fed
// into product analytics for tool-gap coverage.
type UnmetToolEvent struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	TraceID         string         `gorm:"column:trace_id;not null;index" json:"trace_id"`
	Event           datatypes.JSON `gorm:"type:jsonb;column:event" json:"event,omitempty"`
	Intent          datatypes.JSON `gorm:"type:jsonb;column:intent" json:"intent,omitempty"`
	HandledManually bool           `gorm:"column:handled_manually;not null;default:false" json:"handled_manually"`
	Error           *string        `gorm:"column:error;type:text" json:"error,omitempty"`
	Source          string         `gorm:"column:source;not null;default:''" json:"source"`
	ClientEventID   string         `gorm:"column:client_event_id;not null;default:'';index" json:"client_event_id"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (UnmetToolEvent) TableName() string { return "coach_unmet_tool_event" }
