package coach

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NameState is the per-(user, coach) identity record behind name resolution.
// Absent record means both fields nil. AskedAt is set exactly once by the
// "ask" transition; a present Name is terminal.
type NameState struct {
	Name    *string    `json:"name,omitempty"`
	AskedAt *time.Time `json:"asked_at,omitempty"`
}

type HistoryKind string

const (
	HistoryKindShort HistoryKind = "short"
	HistoryKindDeep  HistoryKind = "deep"
	HistoryKindGoal  HistoryKind = "goal"
	HistoryKindTip   HistoryKind = "tip"
)

// HistoryItem is one entry of the rolling per-(user, coach) message window.
// Append order is chronological order.
type HistoryItem struct {
	Text string      `json:"text"`
	TS   int64       `json:"ts"`
	Kind HistoryKind `json:"kind"`
}

// State keys under which the core stores its JSON blobs.
const (
	StateKeyName    = "name_state"
	StateKeyHistory = "message_history"
)

// CoachState is the generic key-value row backing all durable dialogue state.
// One JSON blob per (user, coach, state key); upserts are last-write-wins.
type CoachState struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_coach_state_key,unique,priority:1" json:"user_id"`
	CoachID   string         `gorm:"column:coach_id;not null;index:idx_coach_state_key,unique,priority:2" json:"coach_id"`
	StateKey  string         `gorm:"column:state_key;not null;index:idx_coach_state_key,unique,priority:3" json:"state_key"`
	Value     datatypes.JSON `gorm:"type:jsonb;column:value;not null;default:'{}'" json:"value"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (CoachState) TableName() string { return "coach_state" }
