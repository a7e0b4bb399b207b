package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

type MatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Match) ([]*types.Match, error)
	GetPair(ctx context.Context, tx *gorm.DB, batchNumber int, userID, targetUserID uuid.UUID) (*types.Match, error)
	ListForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]*types.Match, error)
	ListForUser(ctx context.Context, tx *gorm.DB, batchNumber int, userID uuid.UUID) ([]*types.Match, error)
	CountByType(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool, matchType string) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	RevealUnrevealed(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool, revealedAt time.Time) (int64, error)
	CountRevealedForUser(ctx context.Context, tx *gorm.DB, batchNumber int, userID uuid.UUID) (int64, error)
	// FullDeleteFromBatch clears the ledger for the batch and every
	// higher-numbered batch, mirroring the score ledger sweep on reset.
	FullDeleteFromBatch(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error)
}

type matchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMatchRepo(db *gorm.DB, baseLog *logger.Logger) MatchRepo {
	return &matchRepo{db: db, log: baseLog.With("repo", "MatchRepo")}
}

func (r *matchRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Match) ([]*types.Match, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Match{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *matchRepo) GetPair(ctx context.Context, tx *gorm.DB, batchNumber int, userID, targetUserID uuid.UUID) (*types.Match, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Match
	if err := t.WithContext(ctx).
		Where("batch_number = ? AND user_id = ? AND target_user_id = ?", batchNumber, userID, targetUserID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *matchRepo) ListForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]*types.Match, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Match
	if err := t.WithContext(ctx).
		Where("batch_number = ? AND is_test_user = ?", batchNumber, isTestUser).
		Order("user_id asc, target_user_id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *matchRepo) ListForUser(ctx context.Context, tx *gorm.DB, batchNumber int, userID uuid.UUID) ([]*types.Match, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Match
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("batch_number = ? AND user_id = ?", batchNumber, userID).
		Order("target_user_id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *matchRepo) CountByType(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool, matchType string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.Match{}).
		Where("batch_number = ? AND is_test_user = ? AND match_type = ?", batchNumber, isTestUser, matchType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *matchRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Match{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *matchRepo) RevealUnrevealed(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool, revealedAt time.Time) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Model(&types.Match{}).
		Where("batch_number = ? AND is_test_user = ? AND revealed_at IS NULL", batchNumber, isTestUser).
		Updates(map[string]interface{}{"revealed_at": revealedAt})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *matchRepo) CountRevealedForUser(ctx context.Context, tx *gorm.DB, batchNumber int, userID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.Match{}).
		Where("batch_number = ? AND user_id = ? AND revealed_at IS NOT NULL", batchNumber, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *matchRepo) FullDeleteFromBatch(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Where("batch_number >= ?", batchNumber).
		Delete(&types.Match{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
