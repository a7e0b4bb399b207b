package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

type ResponseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.QuestionnaireResponse) ([]*types.QuestionnaireResponse, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.QuestionnaireResponse, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.QuestionnaireResponse, error)
	ExistsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return &responseRepo{db: db, log: baseLog.With("repo", "ResponseRepo")}
}

func (r *responseRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.QuestionnaireResponse) ([]*types.QuestionnaireResponse, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.QuestionnaireResponse{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *responseRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.QuestionnaireResponse, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByUserIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *responseRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.QuestionnaireResponse, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.QuestionnaireResponse
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *responseRepo) ExistsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.QuestionnaireResponse{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
