package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/locks"
	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/matching"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// MatchingReport is the operator-facing result of one matching run.
type MatchingReport struct {
	TotalUsers   int `json:"total_users"`
	PairsCreated int `json:"pairs_created"`
}

type MatcherService interface {
	// RunMatching pairs scored users one-to-one and records algorithm
	// matches. It holds the (batch, partition) lock for the whole run: a
	// partial interleaving could hand a user two matches.
	RunMatching(ctx context.Context, batchNumber int, partition types.Partition) (MatchingReport, error)
}

type matcherService struct {
	db   *gorm.DB
	log  *logger.Logger
	lock locks.PartitionLock

	scoreRepo repos.ScoreRepo
	matchRepo repos.MatchRepo
	batchRepo repos.BatchRepo
}

func NewMatcherService(
	db *gorm.DB,
	baseLog *logger.Logger,
	lock locks.PartitionLock,
	scoreRepo repos.ScoreRepo,
	matchRepo repos.MatchRepo,
	batchRepo repos.BatchRepo,
) MatcherService {
	return &matcherService{
		db:        db,
		log:       baseLog.With("service", "MatcherService"),
		lock:      lock,
		scoreRepo: scoreRepo,
		matchRepo: matchRepo,
		batchRepo: batchRepo,
	}
}

func (s *matcherService) RunMatching(ctx context.Context, batchNumber int, partition types.Partition) (MatchingReport, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "RunMatching")
	defer span.End()

	var report MatchingReport
	if !partition.Valid() {
		return report, fmt.Errorf("%w: unknown partition %q", apperrors.ErrValidationFailed, partition)
	}
	batch, err := s.batchRepo.GetByNumber(ctx, nil, batchNumber)
	if err != nil {
		return report, fmt.Errorf("load batch %d: %w", batchNumber, err)
	}
	if batch == nil {
		return report, fmt.Errorf("%w: batch %d", apperrors.ErrNotFound, batchNumber)
	}

	release, err := s.lock.Acquire(ctx, batchNumber, partition)
	if err != nil {
		return report, fmt.Errorf("%w: %v", apperrors.ErrPreconditionFailed, err)
	}
	defer release()

	isTest := partition.IsTest()
	scores, err := s.scoreRepo.ListForBatch(ctx, nil, batchNumber, isTest)
	if err != nil {
		return report, fmt.Errorf("load score ledger: %w", err)
	}
	if len(scores) == 0 {
		return report, fmt.Errorf("%w: no compatibility scores for batch %d partition %s; run scoring first",
			apperrors.ErrPreconditionFailed, batchNumber, partition)
	}
	existing, err := s.matchRepo.CountByType(ctx, nil, batchNumber, isTest, types.MatchTypeAlgorithm)
	if err != nil {
		return report, fmt.Errorf("count existing matches: %w", err)
	}
	if existing > 0 {
		return report, fmt.Errorf("%w: batch %d partition %s already has %d algorithm matches; reset the batch to rematch",
			apperrors.ErrPreconditionFailed, batchNumber, partition, existing)
	}

	directional := make([]matching.DirectionalScore, 0, len(scores))
	seen := make(map[uuid.UUID]struct{})
	for _, sc := range scores {
		directional = append(directional, matching.DirectionalScore{
			UserID:       sc.UserID,
			TargetUserID: sc.TargetUserID,
			Score:        sc.TotalScore,
			Vetoed:       sc.Vetoed,
		})
		seen[sc.UserID] = struct{}{}
	}
	report.TotalUsers = len(seen)

	startedAt := time.Now()
	pairings := matching.Pair(directional)
	report.PairsCreated = len(pairings)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]*types.Match, 0, 2*len(pairings))
		for _, p := range pairings {
			rows = append(rows,
				&types.Match{
					ID:           uuid.New(),
					BatchNumber:  batchNumber,
					UserID:       p.UserA,
					TargetUserID: p.UserB,
					MatchType:    types.MatchTypeAlgorithm,
					IsTestUser:   isTest,
				},
				&types.Match{
					ID:           uuid.New(),
					BatchNumber:  batchNumber,
					UserID:       p.UserB,
					TargetUserID: p.UserA,
					MatchType:    types.MatchTypeAlgorithm,
					IsTestUser:   isTest,
				},
			)
		}
		if _, err := s.matchRepo.Create(ctx, tx, rows); err != nil {
			return fmt.Errorf("create algorithm matches: %w", err)
		}
		return s.batchRepo.UpdateFields(ctx, tx, batchNumber, map[string]interface{}{
			"status":                types.BatchStatusMatched,
			"total_pairs":           gorm.Expr("total_pairs + ?", len(pairings)),
			"algorithm_matches":     gorm.Expr("algorithm_matches + ?", len(rows)),
			"matching_started_at":   startedAt,
			"matching_completed_at": time.Now(),
		})
	}); err != nil {
		return MatchingReport{}, err
	}

	s.log.Info("Matching complete", "batch", batchNumber, "partition", partition,
		"users", report.TotalUsers, "pairs", report.PairsCreated)
	return report, nil
}
