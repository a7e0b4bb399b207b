package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/matchmaker-backend/internal/repos/testutil"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

func TestMatchRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMatchRepo(db, testutil.Logger(t))

	u1 := uuid.New()
	u2 := uuid.New()
	u3 := uuid.New()

	m1 := testutil.SeedMatch(t, ctx, tx, 1, u1, u2, types.MatchTypeAlgorithm, true)
	testutil.SeedMatch(t, ctx, tx, 1, u2, u1, types.MatchTypeAlgorithm, true)
	testutil.SeedMatch(t, ctx, tx, 1, u1, u3, types.MatchTypeCupidSent, true)
	testutil.SeedMatch(t, ctx, tx, 2, u1, u2, types.MatchTypeAlgorithm, true)

	if got, err := repo.GetPair(ctx, tx, 1, u1, u2); err != nil || got == nil || got.ID != m1.ID {
		t.Fatalf("GetPair: got=%v err=%v", got, err)
	}
	if got, err := repo.GetPair(ctx, tx, 1, u3, u1); err != nil || got != nil {
		t.Fatalf("GetPair missing: got=%v err=%v", got, err)
	}
	if rows, err := repo.ListForBatch(ctx, tx, 1, true); err != nil || len(rows) != 3 {
		t.Fatalf("ListForBatch: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.ListForUser(ctx, tx, 1, u1); err != nil || len(rows) != 2 {
		t.Fatalf("ListForUser: err=%v len=%d", err, len(rows))
	}
	if count, err := repo.CountByType(ctx, tx, 1, true, types.MatchTypeAlgorithm); err != nil || count != 2 {
		t.Fatalf("CountByType: err=%v count=%d", err, count)
	}

	if err := repo.UpdateFields(ctx, tx, m1.ID, map[string]interface{}{"match_type": types.MatchTypeCupidSent}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if count, err := repo.CountByType(ctx, tx, 1, true, types.MatchTypeAlgorithm); err != nil || count != 1 {
		t.Fatalf("CountByType after update: err=%v count=%d", err, count)
	}

	now := time.Now()
	if n, err := repo.RevealUnrevealed(ctx, tx, 1, true, now); err != nil || n != 3 {
		t.Fatalf("RevealUnrevealed: err=%v n=%d", err, n)
	}
	if n, err := repo.RevealUnrevealed(ctx, tx, 1, true, now); err != nil || n != 0 {
		t.Fatalf("RevealUnrevealed rerun: err=%v n=%d", err, n)
	}
	if count, err := repo.CountRevealedForUser(ctx, tx, 1, u1); err != nil || count != 2 {
		t.Fatalf("CountRevealedForUser: err=%v count=%d", err, count)
	}

	if n, err := repo.FullDeleteFromBatch(ctx, tx, 1); err != nil || n != 4 {
		t.Fatalf("FullDeleteFromBatch: err=%v n=%d", err, n)
	}
	if rows, err := repo.ListForBatch(ctx, tx, 2, true); err != nil || len(rows) != 0 {
		t.Fatalf("batch 2 rows should be swept: err=%v len=%d", err, len(rows))
	}
}
