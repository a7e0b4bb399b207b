package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, isTestUser bool) *types.User {
	tb.Helper()
	u := &types.User{
		ID:         uuid.New(),
		Email:      email,
		Password:   "pw",
		FirstName:  "A",
		LastName:   "B",
		IsTestUser: isTestUser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCupid(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, isTestUser bool) *types.User {
	tb.Helper()
	now := time.Now()
	u := &types.User{
		ID:              uuid.New(),
		Email:           email,
		Password:        "pw",
		FirstName:       "C",
		LastName:        "D",
		IsTestUser:      isTestUser,
		IsCupid:         true,
		CupidApprovedAt: &now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed cupid: %v", err)
	}
	return u
}

func SeedBatch(tb testing.TB, ctx context.Context, tx *gorm.DB, batchNumber int, status string) *types.MatchingBatch {
	tb.Helper()
	b := &types.MatchingBatch{
		ID:          uuid.New(),
		BatchNumber: batchNumber,
		Status:      status,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed batch: %v", err)
	}
	return b
}

func SeedScore(tb testing.TB, ctx context.Context, tx *gorm.DB, batchNumber int, userID, targetID uuid.UUID, total float64, isTestUser bool) *types.CompatibilityScore {
	tb.Helper()
	s := &types.CompatibilityScore{
		ID:           uuid.New(),
		BatchNumber:  batchNumber,
		UserID:       userID,
		TargetUserID: targetID,
		TotalScore:   total,
		IsTestUser:   isTestUser,
		Breakdown:    datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed score: %v", err)
	}
	return s
}

func SeedMatch(tb testing.TB, ctx context.Context, tx *gorm.DB, batchNumber int, userID, targetID uuid.UUID, matchType string, isTestUser bool) *types.Match {
	tb.Helper()
	m := &types.Match{
		ID:           uuid.New(),
		BatchNumber:  batchNumber,
		UserID:       userID,
		TargetUserID: targetID,
		MatchType:    matchType,
		IsTestUser:   isTestUser,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed match: %v", err)
	}
	return m
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, batchNumber int, cupidID, candidateID uuid.UUID, isTestUser bool) *types.CupidAssignment {
	tb.Helper()
	a := &types.CupidAssignment{
		ID:               uuid.New(),
		CupidUserID:      cupidID,
		CandidateID:      candidateID,
		BatchNumber:      batchNumber,
		IsTestUser:       isTestUser,
		PotentialMatches: datatypes.JSON([]byte(`[]`)),
		RejectedMatches:  datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func Email(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}
