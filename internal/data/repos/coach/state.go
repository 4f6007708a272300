package coach

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

// StateRepo stores one JSON blob per (user, coach, state key). Upsert is a
// plain last-write-wins ON CONFLICT update with no version token; concurrent
// turns for the same user race and the later write wins. That weak
// consistency is intentional (see the orchestration design notes).
type StateRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID, coachID, stateKey string) (datatypes.JSON, error)
	Upsert(dbc dbctx.Context, userID uuid.UUID, coachID, stateKey string, value datatypes.JSON) error
}

type stateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStateRepo(db *gorm.DB, log *logger.Logger) StateRepo {
	return &stateRepo{
		db:  db,
		log: log.With("repo", "CoachStateRepo"),
	}
}

func (r *stateRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *stateRepo) Get(dbc dbctx.Context, userID uuid.UUID, coachID, stateKey string) (datatypes.JSON, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if coachID == "" || stateKey == "" {
		return nil, fmt.Errorf("missing coach_id or state_key")
	}
	var row types.CoachState
	err := r.conn(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND coach_id = ? AND state_key = ?", userID, coachID, stateKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (r *stateRepo) Upsert(dbc dbctx.Context, userID uuid.UUID, coachID, stateKey string, value datatypes.JSON) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	if coachID == "" || stateKey == "" {
		return fmt.Errorf("missing coach_id or state_key")
	}
	now := time.Now().UTC()
	row := types.CoachState{
		ID:        uuid.New(),
		UserID:    userID,
		CoachID:   coachID,
		StateKey:  stateKey,
		Value:     value,
		UpdatedAt: now,
	}
	return r.conn(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "coach_id"}, {Name: "state_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": value, "updated_at": now}),
		}).
		Create(&row).Error
}
