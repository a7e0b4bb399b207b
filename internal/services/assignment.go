package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// ShortlistSize caps every refreshed shortlist at the top 25 non-vetoed
// scores.
const ShortlistSize = 25

type AssignmentService interface {
	// AssignCupids hands every not-yet-assigned scored candidate in the
	// partition to an approved cupid, round-robin in deterministic id
	// order. Returns the number of assignments created.
	AssignCupids(ctx context.Context, batchNumber int, partition types.Partition) (int, error)
	// RefreshShortlists recomputes every assignment's potential matches
	// from the score ledger: a wholesale overwrite that never touches
	// rejected matches or the revealed count. Assignments with no scores
	// are skipped, not zero-filled. Returns the number updated.
	RefreshShortlists(ctx context.Context, batchNumber int, partition types.Partition) (int, error)
}

type assignmentService struct {
	db  *gorm.DB
	log *logger.Logger

	userRepo       repos.UserRepo
	scoreRepo      repos.ScoreRepo
	matchRepo      repos.MatchRepo
	batchRepo      repos.BatchRepo
	assignmentRepo repos.AssignmentRepo
}

func NewAssignmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	scoreRepo repos.ScoreRepo,
	matchRepo repos.MatchRepo,
	batchRepo repos.BatchRepo,
	assignmentRepo repos.AssignmentRepo,
) AssignmentService {
	return &assignmentService{
		db:             db,
		log:            baseLog.With("service", "AssignmentService"),
		userRepo:       userRepo,
		scoreRepo:      scoreRepo,
		matchRepo:      matchRepo,
		batchRepo:      batchRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *assignmentService) AssignCupids(ctx context.Context, batchNumber int, partition types.Partition) (int, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "AssignCupids")
	defer span.End()

	if !partition.Valid() {
		return 0, fmt.Errorf("%w: unknown partition %q", apperrors.ErrValidationFailed, partition)
	}
	batch, err := s.batchRepo.GetByNumber(ctx, nil, batchNumber)
	if err != nil {
		return 0, fmt.Errorf("load batch %d: %w", batchNumber, err)
	}
	if batch == nil {
		return 0, fmt.Errorf("%w: batch %d", apperrors.ErrNotFound, batchNumber)
	}

	isTest := partition.IsTest()
	matches, err := s.matchRepo.CountByType(ctx, nil, batchNumber, isTest, types.MatchTypeAlgorithm)
	if err != nil {
		return 0, fmt.Errorf("count algorithm matches: %w", err)
	}
	if matches == 0 {
		return 0, fmt.Errorf("%w: no matches for batch %d partition %s; run matching first",
			apperrors.ErrPreconditionFailed, batchNumber, partition)
	}

	cupids, err := s.userRepo.ListApprovedCupids(ctx, nil, isTest)
	if err != nil {
		return 0, fmt.Errorf("list approved cupids: %w", err)
	}
	if len(cupids) == 0 {
		s.log.Warn("No approved cupids in partition", "batch", batchNumber, "partition", partition)
		return 0, nil
	}

	candidates, err := s.scoreRepo.DistinctUserIDs(ctx, nil, batchNumber, isTest)
	if err != nil {
		return 0, fmt.Errorf("list scored candidates: %w", err)
	}
	assigned, err := s.assignmentRepo.AssignedCandidateIDs(ctx, nil, batchNumber)
	if err != nil {
		return 0, fmt.Errorf("list assigned candidates: %w", err)
	}
	assignedSet := make(map[uuid.UUID]struct{}, len(assigned))
	for _, id := range assigned {
		assignedSet[id] = struct{}{}
	}

	rows := make([]*types.CupidAssignment, 0, len(candidates))
	slot := 0
	for _, candidate := range candidates {
		if _, done := assignedSet[candidate]; done {
			continue
		}
		cupid := cupids[slot%len(cupids)]
		if cupid.ID == candidate {
			// A cupid never curates their own shortlist. With a single
			// cupid the candidate is left unassigned.
			if len(cupids) == 1 {
				continue
			}
			slot++
			cupid = cupids[slot%len(cupids)]
		}
		slot++
		rows = append(rows, &types.CupidAssignment{
			ID:               uuid.New(),
			CupidUserID:      cupid.ID,
			CandidateID:      candidate,
			BatchNumber:      batchNumber,
			IsTestUser:       isTest,
			PotentialMatches: datatypes.JSON([]byte(`[]`)),
			RejectedMatches:  datatypes.JSON([]byte(`[]`)),
		})
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.assignmentRepo.Create(ctx, tx, rows)
		return err
	}); err != nil {
		return 0, fmt.Errorf("create assignments: %w", err)
	}

	s.log.Info("Cupid assignment complete", "batch", batchNumber, "partition", partition,
		"cupids", len(cupids), "assignments", len(rows))
	return len(rows), nil
}

func (s *assignmentService) RefreshShortlists(ctx context.Context, batchNumber int, partition types.Partition) (int, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "RefreshShortlists")
	defer span.End()

	if !partition.Valid() {
		return 0, fmt.Errorf("%w: unknown partition %q", apperrors.ErrValidationFailed, partition)
	}
	assignments, err := s.assignmentRepo.ListForBatch(ctx, nil, batchNumber, partition.IsTest())
	if err != nil {
		return 0, fmt.Errorf("list assignments: %w", err)
	}

	updated := 0
	for _, a := range assignments {
		refreshed, err := s.refreshOne(ctx, batchNumber, partition, a)
		if err != nil {
			return updated, err
		}
		if refreshed {
			updated++
		}
	}

	s.log.Info("Shortlist refresh complete", "batch", batchNumber, "partition", partition,
		"assignments", len(assignments), "updated", updated)
	return updated, nil
}

func (s *assignmentService) refreshOne(ctx context.Context, batchNumber int, partition types.Partition, a *types.CupidAssignment) (bool, error) {
	top, err := s.scoreRepo.TopForUser(ctx, nil, batchNumber, a.CandidateID, partition.IsTest(), ShortlistSize)
	if err != nil {
		return false, fmt.Errorf("load top scores for candidate %s: %w", a.CandidateID, err)
	}
	if len(top) == 0 {
		return false, nil
	}

	entries := make([]types.PotentialMatch, 0, len(top))
	for _, sc := range top {
		entries = append(entries, types.PotentialMatch{UserID: sc.TargetUserID, Score: sc.TotalScore})
	}
	shortlist, err := types.EncodeShortlist(entries)
	if err != nil {
		return false, err
	}

	updates := map[string]interface{}{"potential_matches": shortlist}
	err = s.assignmentRepo.UpdateVersioned(ctx, nil, a.ID, a.Version, updates)
	if errors.Is(err, repos.ErrVersionConflict) {
		// A curation mutation landed first; reload and apply once more.
		fresh, ferr := s.assignmentRepo.GetByID(ctx, nil, a.ID)
		if ferr != nil || fresh == nil {
			return false, fmt.Errorf("reload assignment %s after conflict: %w", a.ID, ferr)
		}
		err = s.assignmentRepo.UpdateVersioned(ctx, nil, fresh.ID, fresh.Version, map[string]interface{}{"potential_matches": shortlist})
	}
	if err != nil {
		return false, fmt.Errorf("refresh assignment %s: %w", a.ID, err)
	}
	return true, nil
}
