package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

type ResponseService interface {
	// Submit validates and stores a user's questionnaire answers.
	// Responses are write-once: a second submission fails.
	Submit(ctx context.Context, userID uuid.UUID, answers []questionnaire.SubmittedAnswer) (*types.QuestionnaireResponse, error)
	GetNormalized(ctx context.Context, userID uuid.UUID) (*questionnaire.NormalizedResponse, error)
}

type responseService struct {
	db           *gorm.DB
	log          *logger.Logger
	schema       *questionnaire.Schema
	responseRepo repos.ResponseRepo
}

func NewResponseService(db *gorm.DB, baseLog *logger.Logger, schema *questionnaire.Schema, responseRepo repos.ResponseRepo) ResponseService {
	return &responseService{
		db:           db,
		log:          baseLog.With("service", "ResponseService"),
		schema:       schema,
		responseRepo: responseRepo,
	}
}

func (rs *responseService) Submit(ctx context.Context, userID uuid.UUID, answers []questionnaire.SubmittedAnswer) (*types.QuestionnaireResponse, error) {
	normalized, err := questionnaire.Normalize(rs.schema, userID, answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
	}
	raw, err := questionnaire.Encode(normalized)
	if err != nil {
		return nil, err
	}

	var created *types.QuestionnaireResponse
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := rs.responseRepo.ExistsForUser(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("check existing response: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: questionnaire already submitted", apperrors.ErrValidationFailed)
		}
		created = &types.QuestionnaireResponse{
			ID:            uuid.New(),
			UserID:        userID,
			SchemaVersion: rs.schema.Version,
			Answers:       datatypes.JSON(raw),
			SubmittedAt:   time.Now(),
		}
		_, err = rs.responseRepo.Create(ctx, tx, []*types.QuestionnaireResponse{created})
		return err
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("Questionnaire submitted", "user_id", userID, "answers", len(normalized.Answers))
	return created, nil
}

func (rs *responseService) GetNormalized(ctx context.Context, userID uuid.UUID) (*questionnaire.NormalizedResponse, error) {
	row, err := rs.responseRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: no questionnaire response for user %s", apperrors.ErrNotFound, userID)
	}
	return questionnaire.Decode(row.UserID, row.SchemaVersion, row.Answers)
}
