package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// PromotionReport breaks down one promotion pass. Created counts
// brand-new logical pairs, Updated pairs that existed under another
// provenance, Skipped pairs already correctly represented.
type PromotionReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type CurationService interface {
	ListAssignments(ctx context.Context, cupidUserID uuid.UUID, batchNumber int) ([]*types.CupidAssignment, error)
	// RejectCandidate marks one shortlist entry unusable for the
	// candidate. Idempotent: re-rejecting the same user is a no-op.
	RejectCandidate(ctx context.Context, assignmentID, actingCupidID, rejectedUserID uuid.UUID) error
	// SetRevealedCount overwrites the cupid-owned reveal cursor
	// unconditionally; the contract deliberately does not enforce
	// monotonicity at this layer.
	SetRevealedCount(ctx context.Context, assignmentID, actingCupidID uuid.UUID, count int) error
	// PromoteSelections writes cupid_sent/cupid_received rows for every
	// curator-approved pair not yet represented in the match ledger.
	// Re-runnable: unchanged state yields created=0 updated=0.
	PromoteSelections(ctx context.Context, batchNumber int, partition types.Partition) (PromotionReport, error)
}

type curationService struct {
	db  *gorm.DB
	log *logger.Logger

	assignmentRepo repos.AssignmentRepo
	matchRepo      repos.MatchRepo
	batchRepo      repos.BatchRepo
}

func NewCurationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assignmentRepo repos.AssignmentRepo,
	matchRepo repos.MatchRepo,
	batchRepo repos.BatchRepo,
) CurationService {
	return &curationService{
		db:             db,
		log:            baseLog.With("service", "CurationService"),
		assignmentRepo: assignmentRepo,
		matchRepo:      matchRepo,
		batchRepo:      batchRepo,
	}
}

func (s *curationService) ListAssignments(ctx context.Context, cupidUserID uuid.UUID, batchNumber int) ([]*types.CupidAssignment, error) {
	if cupidUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing cupid id", apperrors.ErrValidationFailed)
	}
	return s.assignmentRepo.ListForCupid(ctx, nil, cupidUserID, batchNumber)
}

func (s *curationService) RejectCandidate(ctx context.Context, assignmentID, actingCupidID, rejectedUserID uuid.UUID) error {
	if assignmentID == uuid.Nil || actingCupidID == uuid.Nil || rejectedUserID == uuid.Nil {
		return fmt.Errorf("%w: missing identifier", apperrors.ErrValidationFailed)
	}

	apply := func() (bool, error) {
		a, err := s.loadOwned(ctx, assignmentID, actingCupidID)
		if err != nil {
			return false, err
		}
		rejected, err := a.Rejected()
		if err != nil {
			return false, err
		}
		for _, id := range rejected {
			if id == rejectedUserID {
				return false, nil // already rejected
			}
		}
		encoded, err := types.EncodeRejected(append(rejected, rejectedUserID))
		if err != nil {
			return false, err
		}
		err = s.assignmentRepo.UpdateVersioned(ctx, nil, a.ID, a.Version, map[string]interface{}{"rejected_matches": encoded})
		if errors.Is(err, repos.ErrVersionConflict) {
			return true, nil
		}
		return false, err
	}

	retry, err := apply()
	if err != nil {
		return err
	}
	if retry {
		if _, err := apply(); err != nil {
			return err
		}
	}
	return nil
}

func (s *curationService) SetRevealedCount(ctx context.Context, assignmentID, actingCupidID uuid.UUID, count int) error {
	if assignmentID == uuid.Nil || actingCupidID == uuid.Nil {
		return fmt.Errorf("%w: missing identifier", apperrors.ErrValidationFailed)
	}
	if count < 0 {
		return fmt.Errorf("%w: revealed count %d must be non-negative", apperrors.ErrValidationFailed, count)
	}

	apply := func() (bool, error) {
		a, err := s.loadOwned(ctx, assignmentID, actingCupidID)
		if err != nil {
			return false, err
		}
		err = s.assignmentRepo.UpdateVersioned(ctx, nil, a.ID, a.Version, map[string]interface{}{"revealed_count": count})
		if errors.Is(err, repos.ErrVersionConflict) {
			return true, nil
		}
		return false, err
	}

	retry, err := apply()
	if err != nil {
		return err
	}
	if retry {
		if _, err := apply(); err != nil {
			return err
		}
	}
	return nil
}

func (s *curationService) loadOwned(ctx context.Context, assignmentID, actingCupidID uuid.UUID) (*types.CupidAssignment, error) {
	a, err := s.assignmentRepo.GetByID(ctx, nil, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: assignment %s", apperrors.ErrNotFound, assignmentID)
	}
	if a.CupidUserID != actingCupidID {
		return nil, fmt.Errorf("%w: assignment %s is not owned by cupid %s", apperrors.ErrForbidden, assignmentID, actingCupidID)
	}
	return a, nil
}

func (s *curationService) PromoteSelections(ctx context.Context, batchNumber int, partition types.Partition) (PromotionReport, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "PromoteSelections")
	defer span.End()

	var report PromotionReport
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

	isTest := partition.IsTest()
	assignments, err := s.assignmentRepo.ListForBatch(ctx, nil, batchNumber, isTest)
	if err != nil {
		return report, fmt.Errorf("list assignments: %w", err)
	}

	for _, a := range assignments {
		selections, err := approvedSelections(a)
		if err != nil {
			return report, err
		}
		for _, target := range selections {
			if target == a.CandidateID {
				continue
			}
			outcome, err := s.promotePair(ctx, batchNumber, isTest, a.CandidateID, target)
			if err != nil {
				return report, err
			}
			switch outcome {
			case pairCreated:
				report.Created++
			case pairUpdated:
				report.Updated++
			case pairSkipped:
				report.Skipped++
			}
		}
	}

	if report.Created > 0 || report.Updated > 0 {
		if err := s.batchRepo.UpdateFields(ctx, nil, batchNumber, map[string]interface{}{
			"cupid_matches": gorm.Expr("cupid_matches + ?", report.Created+report.Updated),
		}); err != nil {
			return report, fmt.Errorf("bump cupid match counter: %w", err)
		}
	}

	s.log.Info("Promotion complete", "batch", batchNumber, "partition", partition,
		"created", report.Created, "updated", report.Updated, "skipped", report.Skipped)
	return report, nil
}

// approvedSelections is the curator-approved slice of an assignment:
// the first RevealedCount entries of the shortlist once rejected users
// are filtered out. Rejected entries stay in the stored list for audit
// but are never selectable.
func approvedSelections(a *types.CupidAssignment) ([]uuid.UUID, error) {
	if a.RevealedCount <= 0 {
		return nil, nil
	}
	shortlist, err := a.Shortlist()
	if err != nil {
		return nil, err
	}
	rejected, err := a.RejectedSet()
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, a.RevealedCount)
	for _, entry := range shortlist {
		if len(out) == a.RevealedCount {
			break
		}
		if _, bad := rejected[entry.UserID]; bad {
			continue
		}
		out = append(out, entry.UserID)
	}
	return out, nil
}

func cupidProvenance(matchType string) bool {
	return matchType == types.MatchTypeCupidSent || matchType == types.MatchTypeCupidReceived
}

type pairOutcome int

const (
	pairCreated pairOutcome = iota
	pairUpdated
	pairSkipped
)

// promotePair writes or re-tags both directional rows of one logical
// pair inside a single transaction so a failed promotion never leaves
// a half-created pair behind.
func (s *curationService) promotePair(ctx context.Context, batchNumber int, isTest bool, candidateID, targetID uuid.UUID) (pairOutcome, error) {
	outcome := pairSkipped
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sent, err := s.matchRepo.GetPair(ctx, tx, batchNumber, candidateID, targetID)
		if err != nil {
			return fmt.Errorf("load sent side: %w", err)
		}
		received, err := s.matchRepo.GetPair(ctx, tx, batchNumber, targetID, candidateID)
		if err != nil {
			return fmt.Errorf("load received side: %w", err)
		}

		if sent == nil && received == nil {
			rows := []*types.Match{
				{
					ID:           uuid.New(),
					BatchNumber:  batchNumber,
					UserID:       candidateID,
					TargetUserID: targetID,
					MatchType:    types.MatchTypeCupidSent,
					IsTestUser:   isTest,
				},
				{
					ID:           uuid.New(),
					BatchNumber:  batchNumber,
					UserID:       targetID,
					TargetUserID: candidateID,
					MatchType:    types.MatchTypeCupidReceived,
					IsTestUser:   isTest,
				},
			}
			if _, err := s.matchRepo.Create(ctx, tx, rows); err != nil {
				return fmt.Errorf("create cupid pair: %w", err)
			}
			outcome = pairCreated
			return nil
		}

		// A row already carrying cupid provenance (either orientation,
		// since both sides of a pair may be promoted by different
		// assignments) is left alone; only algorithm rows are re-tagged.
		changed := false
		if sent == nil {
			row := &types.Match{
				ID:           uuid.New(),
				BatchNumber:  batchNumber,
				UserID:       candidateID,
				TargetUserID: targetID,
				MatchType:    types.MatchTypeCupidSent,
				IsTestUser:   isTest,
			}
			if _, err := s.matchRepo.Create(ctx, tx, []*types.Match{row}); err != nil {
				return fmt.Errorf("create sent side: %w", err)
			}
			changed = true
		} else if !cupidProvenance(sent.MatchType) {
			if err := s.matchRepo.UpdateFields(ctx, tx, sent.ID, map[string]interface{}{"match_type": types.MatchTypeCupidSent}); err != nil {
				return fmt.Errorf("retag sent side: %w", err)
			}
			changed = true
		}

		if received == nil {
			row := &types.Match{
				ID:           uuid.New(),
				BatchNumber:  batchNumber,
				UserID:       targetID,
				TargetUserID: candidateID,
				MatchType:    types.MatchTypeCupidReceived,
				IsTestUser:   isTest,
			}
			if _, err := s.matchRepo.Create(ctx, tx, []*types.Match{row}); err != nil {
				return fmt.Errorf("create received side: %w", err)
			}
			changed = true
		} else if !cupidProvenance(received.MatchType) {
			if err := s.matchRepo.UpdateFields(ctx, tx, received.ID, map[string]interface{}{"match_type": types.MatchTypeCupidReceived}); err != nil {
				return fmt.Errorf("retag received side: %w", err)
			}
			changed = true
		}

		if changed {
			outcome = pairUpdated
		}
		return nil
	})
	if err != nil {
		return pairSkipped, err
	}
	return outcome, nil
}
