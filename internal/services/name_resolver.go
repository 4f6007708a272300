package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/fitlio/coach-backend/internal/data/repos/coach"
	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

// NameAskPrompt is the one fixed prompt used to elicit the preferred name.
const NameAskPrompt = "Wie soll ich dich ansprechen?"

// NameResolution is the outcome of one resolution pass. SetAskedAt signals
// the caller to persist the UNKNOWN→ASKED transition via PersistNameAsked;
// the resolver itself never writes state.
type NameResolution struct {
	Name       *string
	Ask        bool
	AskText    string
	SetAskedAt bool
}

// ResolveUserName runs the identity state machine: RESOLVED when a name is
// known (from state or profile, terminal), ASKED stays silent, UNKNOWN asks
// exactly once. Pure; persistence is the caller's job.
func ResolveUserName(st types.NameState, getProfileName func() string) NameResolution {
	if st.Name != nil && strings.TrimSpace(*st.Name) != "" {
		name := strings.TrimSpace(*st.Name)
		return NameResolution{Name: &name}
	}
	if getProfileName != nil {
		if profile := strings.TrimSpace(getProfileName()); profile != "" {
			return NameResolution{Name: &profile}
		}
	}
	if st.AskedAt != nil {
		// Already asked once; never re-prompt.
		return NameResolution{}
	}
	return NameResolution{Ask: true, AskText: NameAskPrompt, SetAskedAt: true}
}

// NameService loads and persists the per-(user, coach) identity record.
// Failures on either side degrade to "unknown identity" instead of failing
// the turn; the worst case is re-asking for the name on a later turn.
type NameService interface {
	LoadNameState(dbc dbctx.Context, userID uuid.UUID, coachID string) types.NameState
	PersistNameAsked(dbc dbctx.Context, userID uuid.UUID, coachID string)
	PersistName(dbc dbctx.Context, userID uuid.UUID, coachID, name string)
}

type nameService struct {
	log   *logger.Logger
	state repos.StateRepo
}

func NewNameService(baseLog *logger.Logger, state repos.StateRepo) NameService {
	return &nameService{
		log:   baseLog.With("service", "NameService"),
		state: state,
	}
}

func (s *nameService) LoadNameState(dbc dbctx.Context, userID uuid.UUID, coachID string) types.NameState {
	var st types.NameState
	raw, err := s.state.Get(dbc, userID, coachID, types.StateKeyName)
	if err != nil {
		s.log.Warn("name state read failed, treating as unknown", "user_id", userID, "coach_id", coachID, "error", err)
		return st
	}
	if len(raw) == 0 {
		return st
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Warn("name state blob corrupt, treating as unknown", "user_id", userID, "coach_id", coachID, "error", err)
		return types.NameState{}
	}
	return st
}

func (s *nameService) PersistNameAsked(dbc dbctx.Context, userID uuid.UUID, coachID string) {
	st := s.LoadNameState(dbc, userID, coachID)
	now := time.Now().UTC()
	st.AskedAt = &now
	s.write(dbc, userID, coachID, st)
}

func (s *nameService) PersistName(dbc dbctx.Context, userID uuid.UUID, coachID, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	st := s.LoadNameState(dbc, userID, coachID)
	st.Name = &name
	s.write(dbc, userID, coachID, st)
}

func (s *nameService) write(dbc dbctx.Context, userID uuid.UUID, coachID string, st types.NameState) {
	raw, err := json.Marshal(st)
	if err != nil {
		s.log.Warn("name state marshal failed", "user_id", userID, "coach_id", coachID, "error", err)
		return
	}
	if err := s.state.Upsert(dbc, userID, coachID, types.StateKeyName, datatypes.JSON(raw)); err != nil {
		// Accepted degradation: a lost write means we may ask again later.
		s.log.Warn("name state write failed", "user_id", userID, "coach_id", coachID, "error", err)
	}
}
