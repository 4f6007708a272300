package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/fitlio/coach-backend/internal/data/repos/coach"
	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

// HistoryLimit caps the persisted rolling window per (user, coach). Older
// items are dropped, not archived.
const HistoryLimit = 12

// HistoryService maintains the short anti-repetition window. Load-append-save
// with no locking: concurrent turns for the same user race and the later
// write wins. Callers append to the end before calling Save.
type HistoryService interface {
	Load(dbc dbctx.Context, userID uuid.UUID, coachID string) []types.HistoryItem
	Save(dbc dbctx.Context, userID uuid.UUID, history []types.HistoryItem, coachID string)
}

type historyService struct {
	log   *logger.Logger
	state repos.StateRepo
}

func NewHistoryService(baseLog *logger.Logger, state repos.StateRepo) HistoryService {
	return &historyService{
		log:   baseLog.With("service", "HistoryService"),
		state: state,
	}
}

func (s *historyService) Load(dbc dbctx.Context, userID uuid.UUID, coachID string) []types.HistoryItem {
	raw, err := s.state.Get(dbc, userID, coachID, types.StateKeyHistory)
	if err != nil {
		s.log.Warn("history read failed, starting empty", "user_id", userID, "coach_id", coachID, "error", err)
		return []types.HistoryItem{}
	}
	if len(raw) == 0 {
		return []types.HistoryItem{}
	}
	var items []types.HistoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("history blob corrupt, starting empty", "user_id", userID, "coach_id", coachID, "error", err)
		return []types.HistoryItem{}
	}
	return items
}

func (s *historyService) Save(dbc dbctx.Context, userID uuid.UUID, history []types.HistoryItem, coachID string) {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	raw, err := json.Marshal(history)
	if err != nil {
		s.log.Warn("history marshal failed", "user_id", userID, "coach_id", coachID, "error", err)
		return
	}
	if err := s.state.Upsert(dbc, userID, coachID, types.StateKeyHistory, datatypes.JSON(raw)); err != nil {
		s.log.Warn("history write failed, continuity degraded", "user_id", userID, "coach_id", coachID, "error", err)
	}
}
