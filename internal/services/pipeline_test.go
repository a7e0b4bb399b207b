package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/requestdata"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// TestPipelineEndToEnd drives one batch through the whole lifecycle:
// scoring, matching, cupid assignment, curation, promotion, reveal and
// reset, checking counters and idempotence at every step.
func TestPipelineEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	part := types.PartitionTest

	alice := env.seedUser(t, "alice@example.com", true)
	bob := env.seedUser(t, "bob@example.com", true)
	carol := env.seedUser(t, "carol@example.com", true)
	dave := env.seedUser(t, "dave@example.com", true)
	cupid := env.seedCupid(t, "cupid@example.com", true)
	env.seedBatch(t, 1)

	env.submitProfile(t, alice, "Woman", []string{"Man"}, []string{"Music", "Travel"}, "Yes")
	env.submitProfile(t, bob, "Man", []string{"Woman"}, []string{"Music", "Travel"}, "Yes")
	env.submitProfile(t, carol, "Woman", []string{"Man"}, []string{"Outdoors", "Music"}, "No")
	env.submitProfile(t, dave, "Man", []string{"Woman"}, []string{"Outdoors"}, "Yes")

	// Scoring: 4 users, every ordered pair gets a directional row.
	written, err := env.scoring.RunScoring(ctx, 1, part)
	if err != nil {
		t.Fatalf("RunScoring: %v", err)
	}
	if written != 12 {
		t.Fatalf("expected 12 directional scores, got %d", written)
	}

	// Rescoring before matching is allowed and lands on the same rows.
	if written, err = env.scoring.RunScoring(ctx, 1, part); err != nil || written != 12 {
		t.Fatalf("rescore: err=%v written=%d", err, written)
	}
	if count, err := env.scoreRepo.CountForBatch(ctx, nil, 1, true); err != nil || count != 12 {
		t.Fatalf("score count after rescore: err=%v count=%d", err, count)
	}

	// Same-gender directions are vetoed by the dealbreaker.
	scores, err := env.scoreRepo.ListForBatch(ctx, nil, 1, true)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	vetoed := 0
	for _, sc := range scores {
		if sc.Vetoed {
			vetoed++
			if sc.TotalScore != 0 {
				t.Fatalf("vetoed score must be 0, got %v", sc.TotalScore)
			}
		}
	}
	if vetoed != 4 {
		t.Fatalf("expected 4 vetoed directions (alice-carol, bob-dave both ways), got %d", vetoed)
	}

	// Matching pairs alice-bob (perfect overlap) and carol-dave.
	report, err := env.matcher.RunMatching(ctx, 1, part)
	if err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	if report.PairsCreated != 2 {
		t.Fatalf("expected 2 pairs, got %d", report.PairsCreated)
	}
	matches, err := env.matchRepo.ListForBatch(ctx, nil, 1, true)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 4 {
		t.Fatalf("expected 4 directional match rows, got %d", len(matches))
	}
	seen := map[uuid.UUID]int{}
	for _, m := range matches {
		if m.UserID == m.TargetUserID {
			t.Fatalf("self pair for %s", m.UserID)
		}
		if m.MatchType != types.MatchTypeAlgorithm {
			t.Fatalf("unexpected match type %s", m.MatchType)
		}
		seen[m.UserID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("user %s has %d algorithm matches", id, n)
		}
	}
	if m, err := env.matchRepo.GetPair(ctx, nil, 1, alice.ID, bob.ID); err != nil || m == nil {
		t.Fatalf("alice-bob should be matched: err=%v m=%v", err, m)
	}
	if m, err := env.matchRepo.GetPair(ctx, nil, 1, carol.ID, dave.ID); err != nil || m == nil {
		t.Fatalf("carol-dave should be matched: err=%v m=%v", err, m)
	}

	// Rematching without a reset is refused, as is late rescoring.
	if _, err := env.matcher.RunMatching(ctx, 1, part); !errors.Is(err, apperrors.ErrPreconditionFailed) {
		t.Fatalf("rematch should fail precondition, got %v", err)
	}
	if _, err := env.scoring.RunScoring(ctx, 1, part); !errors.Is(err, apperrors.ErrPreconditionFailed) {
		t.Fatalf("scoring a matched batch should fail precondition, got %v", err)
	}

	batch, err := env.batches.GetByNumber(ctx, 1)
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if batch.Status != types.BatchStatusMatched || batch.TotalUsers != 4 || batch.TotalPairs != 2 || batch.AlgorithmMatches != 4 {
		t.Fatalf("unexpected batch state: %+v", batch)
	}

	// Every scored candidate lands with the single cupid.
	created, err := env.assignment.AssignCupids(ctx, 1, part)
	if err != nil {
		t.Fatalf("AssignCupids: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 assignments, got %d", created)
	}
	if created, err = env.assignment.AssignCupids(ctx, 1, part); err != nil || created != 0 {
		t.Fatalf("reassign should be a no-op: err=%v created=%d", err, created)
	}

	updated, err := env.assignment.RefreshShortlists(ctx, 1, part)
	if err != nil {
		t.Fatalf("RefreshShortlists: %v", err)
	}
	if updated != 4 {
		t.Fatalf("expected 4 refreshed shortlists, got %d", updated)
	}

	byCandidate := map[uuid.UUID]*types.CupidAssignment{}
	assignments, err := env.assignmentRepo.ListForCupid(ctx, nil, cupid.ID, 1)
	if err != nil || len(assignments) != 4 {
		t.Fatalf("list assignments: err=%v len=%d", err, len(assignments))
	}
	for _, a := range assignments {
		byCandidate[a.CandidateID] = a
	}

	// Alice's shortlist holds only non-vetoed candidates, best first.
	aliceAsg := byCandidate[alice.ID]
	shortlist, err := aliceAsg.Shortlist()
	if err != nil {
		t.Fatalf("decode shortlist: %v", err)
	}
	if len(shortlist) != 2 || shortlist[0].UserID != bob.ID || shortlist[1].UserID != dave.ID {
		t.Fatalf("unexpected alice shortlist: %+v", shortlist)
	}

	// Rejection is idempotent and survives a shortlist refresh.
	carolAsg := byCandidate[carol.ID]
	if err := env.curation.RejectCandidate(ctx, carolAsg.ID, cupid.ID, bob.ID); err != nil {
		t.Fatalf("RejectCandidate: %v", err)
	}
	if err := env.curation.RejectCandidate(ctx, carolAsg.ID, cupid.ID, bob.ID); err != nil {
		t.Fatalf("repeat RejectCandidate: %v", err)
	}
	if _, err := env.assignment.RefreshShortlists(ctx, 1, part); err != nil {
		t.Fatalf("refresh after reject: %v", err)
	}
	carolAsg, err = env.assignmentRepo.GetByID(ctx, nil, carolAsg.ID)
	if err != nil {
		t.Fatalf("reload assignment: %v", err)
	}
	rejected, err := carolAsg.Rejected()
	if err != nil {
		t.Fatalf("decode rejected: %v", err)
	}
	if len(rejected) != 1 || rejected[0] != bob.ID {
		t.Fatalf("rejection lost across refresh: %v", rejected)
	}

	// A foreign cupid cannot touch the assignment.
	if err := env.curation.RejectCandidate(ctx, carolAsg.ID, alice.ID, dave.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := env.curation.SetRevealedCount(ctx, carolAsg.ID, cupid.ID, -1); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("negative count should fail validation, got %v", err)
	}

	// Reveal alice's top two picks and bob's top pick for promotion.
	if err := env.curation.SetRevealedCount(ctx, byCandidate[alice.ID].ID, cupid.ID, 2); err != nil {
		t.Fatalf("SetRevealedCount alice: %v", err)
	}
	if err := env.curation.SetRevealedCount(ctx, byCandidate[bob.ID].ID, cupid.ID, 1); err != nil {
		t.Fatalf("SetRevealedCount bob: %v", err)
	}

	// alice->bob retags the algorithm pair, alice->dave creates a fresh
	// cupid pair, bob->alice sees cupid rows already in place.
	promo, err := env.curation.PromoteSelections(ctx, 1, part)
	if err != nil {
		t.Fatalf("PromoteSelections: %v", err)
	}
	if promo.Created != 1 || promo.Updated != 1 || promo.Skipped != 1 {
		t.Fatalf("unexpected promotion report: %+v", promo)
	}
	promo, err = env.curation.PromoteSelections(ctx, 1, part)
	if err != nil {
		t.Fatalf("repeat PromoteSelections: %v", err)
	}
	if promo.Created != 0 || promo.Updated != 0 || promo.Skipped != 3 {
		t.Fatalf("promotion should be idempotent: %+v", promo)
	}

	batch, err = env.batches.GetByNumber(ctx, 1)
	if err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if batch.CupidMatches != 2 {
		t.Fatalf("expected cupid_matches=2, got %d", batch.CupidMatches)
	}

	if m, err := env.matchRepo.GetPair(ctx, nil, 1, alice.ID, bob.ID); err != nil || m == nil || m.MatchType != types.MatchTypeCupidSent {
		t.Fatalf("alice->bob should be cupid_sent: err=%v m=%+v", err, m)
	}
	if m, err := env.matchRepo.GetPair(ctx, nil, 1, dave.ID, alice.ID); err != nil || m == nil || m.MatchType != types.MatchTypeCupidReceived {
		t.Fatalf("dave->alice should be cupid_received: err=%v m=%+v", err, m)
	}

	// Reveal stamps every unrevealed row exactly once.
	revealed, err := env.batches.RevealMatches(ctx, 1, part)
	if err != nil {
		t.Fatalf("RevealMatches: %v", err)
	}
	if revealed != 6 {
		t.Fatalf("expected 6 revealed rows, got %d", revealed)
	}
	if revealed, err = env.batches.RevealMatches(ctx, 1, part); err != nil || revealed != 0 {
		t.Fatalf("repeat reveal: err=%v revealed=%d", err, revealed)
	}
	batch, err = env.batches.GetByNumber(ctx, 1)
	if err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if batch.Status != types.BatchStatusRevealed || batch.RevealedAt == nil {
		t.Fatalf("batch should be revealed: %+v", batch)
	}

	// Members see only revealed matches, through their own context.
	aliceCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: alice.ID})
	mine, err := env.users.ListMatches(aliceCtx, 1)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("alice should see 2 matches, got %d", len(mine))
	}

	// Reset wipes the batch and everything above it.
	if _, err := env.batches.CreateNext(ctx); err != nil {
		t.Fatalf("CreateNext: %v", err)
	}
	reset, err := env.batches.ResetBatch(ctx, 1)
	if err != nil {
		t.Fatalf("ResetBatch: %v", err)
	}
	if reset.ScoresDeleted != 12 || reset.MatchesDeleted != 6 || reset.AssignmentsDeleted != 4 || reset.BatchesDeleted != 1 {
		t.Fatalf("unexpected reset report: %+v", reset)
	}
	batch, err = env.batches.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent after reset: %v", err)
	}
	if batch.BatchNumber != 1 || batch.Status != types.BatchStatusPending || batch.TotalPairs != 0 || batch.RevealedAt != nil {
		t.Fatalf("batch not reset: %+v", batch)
	}

	// The cycle restarts cleanly after a reset.
	if written, err := env.scoring.RunScoring(ctx, 1, part); err != nil || written != 12 {
		t.Fatalf("rescore after reset: err=%v written=%d", err, written)
	}
	if report, err := env.matcher.RunMatching(ctx, 1, part); err != nil || report.PairsCreated != 2 {
		t.Fatalf("rematch after reset: err=%v report=%+v", err, report)
	}
}

func TestMatchingRequiresScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedBatch(t, 1)

	if _, err := env.matcher.RunMatching(ctx, 1, types.PartitionTest); !errors.Is(err, apperrors.ErrPreconditionFailed) {
		t.Fatalf("matching without scores should fail precondition, got %v", err)
	}
	if _, err := env.assignment.AssignCupids(ctx, 1, types.PartitionTest); !errors.Is(err, apperrors.ErrPreconditionFailed) {
		t.Fatalf("assignment without matches should fail precondition, got %v", err)
	}
}

func TestProductionRevealRequiresPromotion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedBatch(t, 1)

	if _, err := env.batches.RevealMatches(ctx, 1, types.PartitionProduction); !errors.Is(err, apperrors.ErrPreconditionFailed) {
		t.Fatalf("production reveal without promotion should fail, got %v", err)
	}
	// The test partition may rehearse the reveal without curation.
	if revealed, err := env.batches.RevealMatches(ctx, 1, types.PartitionTest); err != nil || revealed != 0 {
		t.Fatalf("test partition reveal: err=%v revealed=%d", err, revealed)
	}
}

func TestUnknownBatchAndPartition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.scoring.RunScoring(ctx, 9, types.PartitionTest); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown batch should be not found, got %v", err)
	}
	env.seedBatch(t, 1)
	if _, err := env.scoring.RunScoring(ctx, 1, types.Partition("staging")); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("unknown partition should fail validation, got %v", err)
	}
}

func TestResetSweepsHigherBatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	part := types.PartitionTest

	eve := env.seedUser(t, "eve@example.com", true)
	frank := env.seedUser(t, "frank@example.com", true)
	env.seedBatch(t, 1)
	env.submitProfile(t, eve, "Woman", []string{"Man"}, []string{"Music"}, "Yes")
	env.submitProfile(t, frank, "Man", []string{"Woman"}, []string{"Music"}, "Yes")

	if written, err := env.scoring.RunScoring(ctx, 1, part); err != nil || written != 2 {
		t.Fatalf("score batch 1: err=%v written=%d", err, written)
	}
	if _, err := env.batches.CreateNext(ctx); err != nil {
		t.Fatalf("CreateNext: %v", err)
	}
	if written, err := env.scoring.RunScoring(ctx, 2, part); err != nil || written != 2 {
		t.Fatalf("score batch 2: err=%v written=%d", err, written)
	}
	if report, err := env.matcher.RunMatching(ctx, 2, part); err != nil || report.PairsCreated != 1 {
		t.Fatalf("match batch 2: err=%v report=%+v", err, report)
	}

	// Resetting batch 1 takes batch 2's ledger rows with the batch row,
	// so the reissued number starts from a clean slate.
	reset, err := env.batches.ResetBatch(ctx, 1)
	if err != nil {
		t.Fatalf("ResetBatch: %v", err)
	}
	if reset.ScoresDeleted != 4 || reset.MatchesDeleted != 2 || reset.BatchesDeleted != 1 {
		t.Fatalf("unexpected reset report: %+v", reset)
	}
	if count, err := env.scoreRepo.CountForBatch(ctx, nil, 2, true); err != nil || count != 0 {
		t.Fatalf("batch 2 scores should be swept: err=%v count=%d", err, count)
	}
	if _, err := env.batches.GetByNumber(ctx, 2); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("batch 2 should be gone, got %v", err)
	}

	// A recreated batch 2 pairs only from its own fresh scores.
	if _, err := env.batches.CreateNext(ctx); err != nil {
		t.Fatalf("recreate batch 2: %v", err)
	}
	if _, err := env.matcher.RunMatching(ctx, 2, part); !errors.Is(err, apperrors.ErrPreconditionFailed) {
		t.Fatalf("matching a fresh batch without scores should fail precondition, got %v", err)
	}
}
