package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

type BatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MatchingBatch) ([]*types.MatchingBatch, error)
	GetByNumber(ctx context.Context, tx *gorm.DB, batchNumber int) (*types.MatchingBatch, error)
	// GetCurrent returns the highest-numbered batch, nil when none exist.
	GetCurrent(ctx context.Context, tx *gorm.DB) (*types.MatchingBatch, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, batchNumber int, updates map[string]interface{}) error
	FullDeleteAbove(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error)
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return &batchRepo{db: db, log: baseLog.With("repo", "BatchRepo")}
}

func (r *batchRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MatchingBatch) ([]*types.MatchingBatch, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MatchingBatch{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *batchRepo) GetByNumber(ctx context.Context, tx *gorm.DB, batchNumber int) (*types.MatchingBatch, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MatchingBatch
	if err := t.WithContext(ctx).
		Where("batch_number = ?", batchNumber).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *batchRepo) GetCurrent(ctx context.Context, tx *gorm.DB) (*types.MatchingBatch, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MatchingBatch
	if err := t.WithContext(ctx).
		Order("batch_number desc").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *batchRepo) UpdateFields(ctx context.Context, tx *gorm.DB, batchNumber int, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.MatchingBatch{}).
		Where("batch_number = ?", batchNumber).
		Updates(updates).Error
}

func (r *batchRepo) FullDeleteAbove(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Where("batch_number > ?", batchNumber).
		Delete(&types.MatchingBatch{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
