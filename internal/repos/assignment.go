package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// ErrVersionConflict is returned when an optimistic update lost the race
// against a concurrent mutation of the same assignment row.
var ErrVersionConflict = fmt.Errorf("assignment version conflict")

type AssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CupidAssignment) ([]*types.CupidAssignment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CupidAssignment, error)
	ListForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]*types.CupidAssignment, error)
	ListForCupid(ctx context.Context, tx *gorm.DB, cupidUserID uuid.UUID, batchNumber int) ([]*types.CupidAssignment, error)
	AssignedCandidateIDs(ctx context.Context, tx *gorm.DB, batchNumber int) ([]uuid.UUID, error)
	// UpdateVersioned applies updates only when the stored version still
	// matches, bumping it by one. ErrVersionConflict on a lost race.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int, updates map[string]interface{}) error
	// FullDeleteFromBatch clears assignments for the batch and every
	// higher-numbered batch, mirroring the score ledger sweep on reset.
	FullDeleteFromBatch(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error)
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CupidAssignment) ([]*types.CupidAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CupidAssignment{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CupidAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.CupidAssignment
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assignmentRepo) ListForBatch(ctx context.Context, tx *gorm.DB, batchNumber int, isTestUser bool) ([]*types.CupidAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CupidAssignment
	if err := t.WithContext(ctx).
		Where("batch_number = ? AND is_test_user = ?", batchNumber, isTestUser).
		Order("candidate_id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) ListForCupid(ctx context.Context, tx *gorm.DB, cupidUserID uuid.UUID, batchNumber int) ([]*types.CupidAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CupidAssignment
	if cupidUserID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("cupid_user_id = ? AND batch_number = ?", cupidUserID, batchNumber).
		Order("candidate_id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) AssignedCandidateIDs(ctx context.Context, tx *gorm.DB, batchNumber int) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if err := t.WithContext(ctx).
		Model(&types.CupidAssignment{}).
		Where("batch_number = ?", batchNumber).
		Pluck("candidate_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["version"] = version + 1
	res := t.WithContext(ctx).
		Model(&types.CupidAssignment{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *assignmentRepo) FullDeleteFromBatch(ctx context.Context, tx *gorm.DB, batchNumber int) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Where("batch_number >= ?", batchNumber).
		Delete(&types.CupidAssignment{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
