package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

type ScoreRepo interface {
	// Upsert tolerates re-running a scoring shard: rows are keyed by
	// (batch_number, user_id, target_user_id) and overwritten in place.
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.CompatibilityScore) (int, error)
	ListForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]*types.CompatibilityScore, error)
	// TopForUser returns the user's highest-scoring non-vetoed rows,
	// ordered by total score descending with target id ties ascending.
	// Vetoed rows are excluded: a dealbreaker conflict disqualifies the
	// candidate from shortlists, not just from pairing.
	TopForUser(ctx context.Context, tx *gorm.DB, batchNumber int, userID uuid.UUID, isTestUser bool, limit int) ([]*types.CompatibilityScore, error)
	CountForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) (int64, error)
	DistinctUserIDs(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]uuid.UUID, error)
	// FullDeleteFromBatch clears the ledger for the batch and every
	// higher-numbered batch. Reset reissues those numbers, so rows from
	// a previous incarnation must not survive.
	FullDeleteFromBatch(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error)
}

type scoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRepo {
	return &scoreRepo{db: db, log: baseLog.With("repo", "ScoreRepo")}
}

func (r *scoreRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.CompatibilityScore) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "batch_number"},
				{Name: "user_id"},
				{Name: "target_user_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"total_score", "vetoed", "breakdown", "is_test_user", "updated_at"}),
		}).
		Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *scoreRepo) ListForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]*types.CompatibilityScore, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CompatibilityScore
	if err := t.WithContext(ctx).
		Where("batch_number = ? AND is_test_user = ?", batchNumber, isTestUser).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scoreRepo) TopForUser(ctx context.Context, tx *gorm.DB, batchNumber int, userID uuid.UUID, isTestUser bool, limit int) ([]*types.CompatibilityScore, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CompatibilityScore
	if userID == uuid.Nil || limit <= 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("batch_number = ? AND user_id = ? AND is_test_user = ? AND vetoed = ?", batchNumber, userID, isTestUser, false).
		Order("total_score desc, target_user_id asc").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scoreRepo) CountForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.CompatibilityScore{}).
		Where("batch_number = ? AND is_test_user = ?", batchNumber, isTestUser).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *scoreRepo) DistinctUserIDs(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if err := t.WithContext(ctx).
		Model(&types.CompatibilityScore{}).
		Where("batch_number = ? AND is_test_user = ?", batchNumber, isTestUser).
		Distinct("user_id").
		Order("user_id asc").
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scoreRepo) FullDeleteFromBatch(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Where("batch_number >= ?", batchNumber).
		Delete(&types.CompatibilityScore{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
