package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// ResetReport lists what a batch reset destroyed.
type ResetReport struct {
	ScoresDeleted      int64 `json:"scores_deleted"`
	MatchesDeleted     int64 `json:"matches_deleted"`
	AssignmentsDeleted int64 `json:"assignments_deleted"`
	BatchesDeleted     int64 `json:"batches_deleted"`
}

type BatchService interface {
	GetCurrent(ctx context.Context) (*types.MatchingBatch, error)
	GetByNumber(ctx context.Context, batchNumber int) (*types.MatchingBatch, error)
	// CreateNext opens the next numbered batch. Numbers are monotonic and
	// never reused once advanced past.
	CreateNext(ctx context.Context) (*types.MatchingBatch, error)
	// RevealMatches stamps RevealedAt on every unrevealed match of the
	// batch partition. Production reveals require promoted cupid
	// selections; the test partition may reveal without curation.
	RevealMatches(ctx context.Context, batchNumber int, partition types.Partition) (int, error)
	// ResetBatch is the only destructive operation: it clears the score,
	// match and assignment ledgers for the batch and every higher batch,
	// deletes the higher-numbered batch rows outright and returns the
	// batch to pending. The deleted-row counts cover all swept batches.
	ResetBatch(ctx context.Context, batchNumber int) (ResetReport, error)
}

type batchService struct {
	db  *gorm.DB
	log *logger.Logger

	batchRepo      repos.BatchRepo
	scoreRepo      repos.ScoreRepo
	matchRepo      repos.MatchRepo
	assignmentRepo repos.AssignmentRepo
}

func NewBatchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	batchRepo repos.BatchRepo,
	scoreRepo repos.ScoreRepo,
	matchRepo repos.MatchRepo,
	assignmentRepo repos.AssignmentRepo,
) BatchService {
	return &batchService{
		db:             db,
		log:            baseLog.With("service", "BatchService"),
		batchRepo:      batchRepo,
		scoreRepo:      scoreRepo,
		matchRepo:      matchRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *batchService) GetCurrent(ctx context.Context) (*types.MatchingBatch, error) {
	batch, err := s.batchRepo.GetCurrent(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load current batch: %w", err)
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: no batches exist yet", apperrors.ErrNotFound)
	}
	return batch, nil
}

func (s *batchService) GetByNumber(ctx context.Context, batchNumber int) (*types.MatchingBatch, error) {
	batch, err := s.batchRepo.GetByNumber(ctx, nil, batchNumber)
	if err != nil {
		return nil, fmt.Errorf("load batch %d: %w", batchNumber, err)
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: batch %d", apperrors.ErrNotFound, batchNumber)
	}
	return batch, nil
}

func (s *batchService) CreateNext(ctx context.Context) (*types.MatchingBatch, error) {
	var created *types.MatchingBatch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.batchRepo.GetCurrent(ctx, tx)
		if err != nil {
			return fmt.Errorf("load current batch: %w", err)
		}
		next := 1
		if current != nil {
			next = current.BatchNumber + 1
		}
		created = &types.MatchingBatch{
			ID:          uuid.New(),
			BatchNumber: next,
			Status:      types.BatchStatusPending,
		}
		_, err = s.batchRepo.Create(ctx, tx, []*types.MatchingBatch{created})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Opened batch", "batch", created.BatchNumber)
	return created, nil
}

func (s *batchService) RevealMatches(ctx context.Context, batchNumber int, partition types.Partition) (int, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "RevealMatches")
	defer span.End()

	if !partition.Valid() {
		return 0, fmt.Errorf("%w: unknown partition %q", apperrors.ErrValidationFailed, partition)
	}
	batch, err := s.GetByNumber(ctx, batchNumber)
	if err != nil {
		return 0, err
	}

	isTest := partition.IsTest()
	if !isTest {
		promoted, err := s.matchRepo.CountByType(ctx, nil, batchNumber, isTest, types.MatchTypeCupidSent)
		if err != nil {
			return 0, fmt.Errorf("count promoted selections: %w", err)
		}
		if promoted == 0 {
			return 0, fmt.Errorf("%w: no promoted cupid selections for batch %d; run promotion first (the test partition may reveal without curation)",
				apperrors.ErrPreconditionFailed, batchNumber)
		}
	}

	revealed := 0
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		n, err := s.matchRepo.RevealUnrevealed(ctx, tx, batchNumber, isTest, now)
		if err != nil {
			return fmt.Errorf("reveal matches: %w", err)
		}
		revealed = int(n)
		if batch.RevealedAt == nil {
			return s.batchRepo.UpdateFields(ctx, tx, batchNumber, map[string]interface{}{
				"status":      types.BatchStatusRevealed,
				"revealed_at": now,
			})
		}
		return nil
	}); err != nil {
		return 0, err
	}

	if revealed == 0 {
		s.log.Info("Nothing to reveal", "batch", batchNumber, "partition", partition)
	} else {
		s.log.Info("Reveal complete", "batch", batchNumber, "partition", partition, "revealed", revealed)
	}
	return revealed, nil
}

func (s *batchService) ResetBatch(ctx context.Context, batchNumber int) (ResetReport, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "ResetBatch")
	defer span.End()

	var report ResetReport
	if _, err := s.GetByNumber(ctx, batchNumber); err != nil {
		return report, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if report.ScoresDeleted, err = s.scoreRepo.FullDeleteFromBatch(ctx, tx, batchNumber); err != nil {
			return fmt.Errorf("clear score ledger: %w", err)
		}
		if report.MatchesDeleted, err = s.matchRepo.FullDeleteFromBatch(ctx, tx, batchNumber); err != nil {
			return fmt.Errorf("clear match ledger: %w", err)
		}
		if report.AssignmentsDeleted, err = s.assignmentRepo.FullDeleteFromBatch(ctx, tx, batchNumber); err != nil {
			return fmt.Errorf("clear assignments: %w", err)
		}
		if report.BatchesDeleted, err = s.batchRepo.FullDeleteAbove(ctx, tx, batchNumber); err != nil {
			return fmt.Errorf("delete higher batches: %w", err)
		}
		return s.batchRepo.UpdateFields(ctx, tx, batchNumber, map[string]interface{}{
			"status":                types.BatchStatusPending,
			"total_users":           0,
			"total_pairs":           0,
			"algorithm_matches":     0,
			"cupid_matches":         0,
			"scoring_started_at":    nil,
			"scoring_completed_at":  nil,
			"matching_started_at":   nil,
			"matching_completed_at": nil,
			"revealed_at":           nil,
		})
	})
	if err != nil {
		return ResetReport{}, err
	}

	s.log.Warn("Batch reset", "batch", batchNumber,
		"scores_deleted", report.ScoresDeleted,
		"matches_deleted", report.MatchesDeleted,
		"assignments_deleted", report.AssignmentsDeleted,
		"batches_deleted", report.BatchesDeleted)
	return report, nil
}
