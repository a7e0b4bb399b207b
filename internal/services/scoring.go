package services

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/matching"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

const scoreInsertChunk = 500

type ScoringService interface {
	// RunScoring scores every directional pair of submitted users inside
	// the partition and upserts the score ledger for the batch. Safe to
	// re-run: rows are keyed by (batch, user, target). Returns the number
	// of score rows written.
	RunScoring(ctx context.Context, batchNumber int, partition types.Partition) (int, error)
}

type scoringService struct {
	db     *gorm.DB
	log    *logger.Logger
	schema *questionnaire.Schema

	userRepo     repos.UserRepo
	responseRepo repos.ResponseRepo
	scoreRepo    repos.ScoreRepo
	batchRepo    repos.BatchRepo
}

func NewScoringService(
	db *gorm.DB,
	baseLog *logger.Logger,
	schema *questionnaire.Schema,
	userRepo repos.UserRepo,
	responseRepo repos.ResponseRepo,
	scoreRepo repos.ScoreRepo,
	batchRepo repos.BatchRepo,
) ScoringService {
	return &scoringService{
		db:           db,
		log:          baseLog.With("service", "ScoringService"),
		schema:       schema,
		userRepo:     userRepo,
		responseRepo: responseRepo,
		scoreRepo:    scoreRepo,
		batchRepo:    batchRepo,
	}
}

func (s *scoringService) RunScoring(ctx context.Context, batchNumber int, partition types.Partition) (int, error) {
	ctx, span := otel.Tracer("matchmaker/pipeline").Start(ctx, "RunScoring")
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
	if batch.Status != types.BatchStatusPending && batch.Status != types.BatchStatusScoring {
		return 0, fmt.Errorf("%w: batch %d is %s; scoring only runs before matching (reset the batch to score again)",
			apperrors.ErrPreconditionFailed, batchNumber, batch.Status)
	}

	responses, err := s.loadSubmittedResponses(ctx, partition)
	if err != nil {
		return 0, err
	}
	s.log.Info("Scoring batch", "batch", batchNumber, "partition", partition, "users", len(responses))

	now := time.Now()
	startUpdates := map[string]interface{}{"status": types.BatchStatusScoring}
	if batch.ScoringStartedAt == nil {
		startUpdates["scoring_started_at"] = now
	}
	if err := s.batchRepo.UpdateFields(ctx, nil, batchNumber, startUpdates); err != nil {
		return 0, fmt.Errorf("mark scoring started: %w", err)
	}

	rows := s.scorePairs(ctx, batchNumber, partition, responses)

	written := 0
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += scoreInsertChunk {
			end := start + scoreInsertChunk
			if end > len(rows) {
				end = len(rows)
			}
			n, err := s.scoreRepo.Upsert(ctx, tx, rows[start:end])
			if err != nil {
				return fmt.Errorf("upsert scores: %w", err)
			}
			written += n
		}
		return s.batchRepo.UpdateFields(ctx, tx, batchNumber, map[string]interface{}{
			"total_users":          len(responses),
			"scoring_completed_at": time.Now(),
		})
	}); err != nil {
		return 0, err
	}

	s.log.Info("Scoring complete", "batch", batchNumber, "partition", partition, "rows", written)
	return written, nil
}

// scorePairs fans the N*(N-1) directional computations out across
// workers. Each worker owns a disjoint index range so results land in a
// preallocated slice without locking; ordering between pairs does not
// matter because every pair is independent.
func (s *scoringService) scorePairs(ctx context.Context, batchNumber int, partition types.Partition, responses []*questionnaire.NormalizedResponse) []*types.CompatibilityScore {
	n := len(responses)
	if n < 2 {
		return nil
	}

	type task struct{ i, j int }
	tasks := make([]task, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			tasks = append(tasks, task{i, j})
		}
	}

	rows := make([]*types.CompatibilityScore, len(tasks))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(tasks) {
		workers = len(tasks)
	}

	g, _ := errgroup.WithContext(ctx)
	chunk := (len(tasks) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(tasks) {
			end = len(tasks)
		}
		if start >= end {
			break
		}
		g.Go(func() error {
			for idx := start; idx < end; idx++ {
				t := tasks[idx]
				a, b := responses[t.i], responses[t.j]
				res := matching.Score(s.schema, a, b)
				rows[idx] = &types.CompatibilityScore{
					ID:           uuid.New(),
					BatchNumber:  batchNumber,
					UserID:       a.UserID,
					TargetUserID: b.UserID,
					TotalScore:   res.Total,
					Vetoed:       res.Vetoed,
					Breakdown:    encodeBreakdown(res.Breakdown),
					IsTestUser:   partition.IsTest(),
				}
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; scoring is pure

	return rows
}

func (s *scoringService) loadSubmittedResponses(ctx context.Context, partition types.Partition) ([]*questionnaire.NormalizedResponse, error) {
	users, err := s.userRepo.ListByPartition(ctx, nil, partition.IsTest())
	if err != nil {
		return nil, fmt.Errorf("list partition users: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	stored, err := s.responseRepo.GetByUserIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	out := make([]*questionnaire.NormalizedResponse, 0, len(stored))
	for _, row := range stored {
		resp, err := questionnaire.Decode(row.UserID, row.SchemaVersion, row.Answers)
		if err != nil {
			// A malformed stored blob should never happen past the
			// normalizer; skip the user rather than failing the batch.
			s.log.Warn("Skipping user with undecodable response", "user_id", row.UserID, "error", err)
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

func encodeBreakdown(breakdown []matching.QuestionScore) datatypes.JSON {
	if len(breakdown) == 0 {
		return datatypes.JSON([]byte(`[]`))
	}
	raw, err := json.Marshal(breakdown)
	if err != nil {
		return datatypes.JSON([]byte(`[]`))
	}
	return datatypes.JSON(raw)
}
