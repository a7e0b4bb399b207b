package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/matchmaker-backend/internal/repos/testutil"
)

func TestAssignmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAssignmentRepo(db, testutil.Logger(t))

	cupid := uuid.New()
	c1 := uuid.New()
	c2 := uuid.New()

	a1 := testutil.SeedAssignment(t, ctx, tx, 1, cupid, c1, true)
	testutil.SeedAssignment(t, ctx, tx, 1, cupid, c2, true)
	testutil.SeedAssignment(t, ctx, tx, 2, cupid, c1, true)

	if got, err := repo.GetByID(ctx, tx, a1.ID); err != nil || got == nil || got.CandidateID != c1 {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if rows, err := repo.ListForBatch(ctx, tx, 1, true); err != nil || len(rows) != 2 {
		t.Fatalf("ListForBatch: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.ListForCupid(ctx, tx, cupid, 1); err != nil || len(rows) != 2 {
		t.Fatalf("ListForCupid: err=%v len=%d", err, len(rows))
	}
	if ids, err := repo.AssignedCandidateIDs(ctx, tx, 1); err != nil || len(ids) != 2 {
		t.Fatalf("AssignedCandidateIDs: err=%v ids=%v", err, ids)
	}

	updates := map[string]interface{}{"revealed_count": 3}
	if err := repo.UpdateVersioned(ctx, tx, a1.ID, a1.Version, updates); err != nil {
		t.Fatalf("UpdateVersioned: %v", err)
	}
	// Stale version loses the race.
	stale := map[string]interface{}{"rejected_matches": datatypes.JSON([]byte(`[]`))}
	if err := repo.UpdateVersioned(ctx, tx, a1.ID, a1.Version, stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	got, err := repo.GetByID(ctx, tx, a1.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: got=%v err=%v", got, err)
	}
	if got.RevealedCount != 3 || got.Version != a1.Version+1 {
		t.Fatalf("unexpected row after versioned update: %+v", got)
	}

	if n, err := repo.FullDeleteFromBatch(ctx, tx, 1); err != nil || n != 3 {
		t.Fatalf("FullDeleteFromBatch: err=%v n=%d", err, n)
	}
	if rows, err := repo.ListForBatch(ctx, tx, 2, true); err != nil || len(rows) != 0 {
		t.Fatalf("batch 2 rows should be swept: err=%v len=%d", err, len(rows))
	}
}
