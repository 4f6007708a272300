package domain

import (
	"github.com/fitlio/coach-backend/internal/domain/coach"
)

// Aliases so callers can import a single types package.

type (
	Event       = coach.Event
	EventType   = coach.EventType
	Intent      = coach.Intent
	ModelChoice = coach.ModelChoice
	ModelParams = coach.ModelParams

	NameState   = coach.NameState
	HistoryItem = coach.HistoryItem
	HistoryKind = coach.HistoryKind

	CoachState     = coach.CoachState
	TraceEntry     = coach.TraceEntry
	UnmetToolEvent = coach.UnmetToolEvent
)

const (
	EventTypeText  = coach.EventTypeText
	EventTypeImage = coach.EventTypeImage
	EventTypeEnd   = coach.EventTypeEnd

	HistoryKindShort = coach.HistoryKindShort
	HistoryKindDeep  = coach.HistoryKindDeep
	HistoryKindGoal  = coach.HistoryKindGoal
	HistoryKindTip   = coach.HistoryKindTip

	StateKeyName    = coach.StateKeyName
	StateKeyHistory = coach.StateKeyHistory

	StageIntentClassified = coach.StageIntentClassified
	StageModelsChosen     = coach.StageModelsChosen
	StageToolDispatched   = coach.StageToolDispatched
	StageFallbackLLMOnly  = coach.StageFallbackLLMOnly
	StageTurnDone         = coach.StageTurnDone
)
