package coach

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fitlio/coach-backend/internal/data/repos/testutil"
	"github.com/fitlio/coach-backend/internal/pkg/dbctx"
)

func TestStateRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewStateRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	userID := uuid.New()

	got, err := repo.Get(dbc, userID, "coach-lisa", "name_state")
	if err != nil {
		t.Fatalf("Get (missing): %v", err)
	}
	if got != nil {
		t.Fatalf("Get (missing): expected nil, got %s", string(got))
	}

	first := datatypes.JSON([]byte(`{"name":"Max"}`))
	if err := repo.Upsert(dbc, userID, "coach-lisa", "name_state", first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err = repo.Get(dbc, userID, "coach-lisa", "name_state")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"name":"Max"}` {
		t.Fatalf("Get: unexpected value %s", string(got))
	}

	// Second upsert for the same key overwrites; later write wins.
	second := datatypes.JSON([]byte(`{"name":"Moritz"}`))
	if err := repo.Upsert(dbc, userID, "coach-lisa", "name_state", second); err != nil {
		t.Fatalf("Upsert (overwrite): %v", err)
	}
	got, err = repo.Get(dbc, userID, "coach-lisa", "name_state")
	if err != nil {
		t.Fatalf("Get (after overwrite): %v", err)
	}
	if string(got) != `{"name":"Moritz"}` {
		t.Fatalf("Get (after overwrite): unexpected value %s", string(got))
	}

	// Same user, different coach: independent blob.
	got, err = repo.Get(dbc, userID, "coach-ben", "name_state")
	if err != nil {
		t.Fatalf("Get (other coach): %v", err)
	}
	if got != nil {
		t.Fatalf("Get (other coach): expected nil, got %s", string(got))
	}
}

func TestStateRepo_Validation(t *testing.T) {
	db := testutil.DB(t)
	repo := NewStateRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, err := repo.Get(dbc, uuid.Nil, "coach-lisa", "name_state"); err == nil {
		t.Fatalf("Get: expected error for nil user id")
	}
	if err := repo.Upsert(dbc, uuid.New(), "", "name_state", datatypes.JSON([]byte(`{}`))); err == nil {
		t.Fatalf("Upsert: expected error for empty coach id")
	}
}
