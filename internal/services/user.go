package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/logger"
	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/requestdata"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// RevealedMatch is the member-facing view of one revealed match.
type RevealedMatch struct {
	TargetUserID uuid.UUID `json:"target_user_id"`
	MatchType    string    `json:"match_type"`
	RevealedAt   time.Time `json:"revealed_at"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	// ApproveCupid stamps CupidApprovedAt on a cupid account. Admin only.
	ApproveCupid(ctx context.Context, userID uuid.UUID) error
	// ListMatches returns the caller's revealed matches for a batch.
	// Unrevealed rows never leave the service.
	ListMatches(ctx context.Context, batchNumber int) ([]RevealedMatch, error)
}

type userService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	matchRepo repos.MatchRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, matchRepo repos.MatchRepo) UserService {
	return &userService{
		db:        db,
		log:       baseLog.With("service", "UserService"),
		userRepo:  userRepo,
		matchRepo: matchRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: not logged in", apperrors.ErrUnauthorized)
	}
	user, err := us.userRepo.GetByID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, rd.UserID)
	}
	return user, nil
}

func (us *userService) ApproveCupid(ctx context.Context, userID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("%w: not logged in", apperrors.ErrUnauthorized)
	}
	if !rd.IsAdmin {
		return fmt.Errorf("%w: cupid approval requires admin", apperrors.ErrForbidden)
	}
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
	}
	if !user.IsCupid {
		return fmt.Errorf("%w: user %s is not a cupid account", apperrors.ErrValidationFailed, userID)
	}
	if user.CupidApprovedAt != nil {
		return nil
	}
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.userRepo.SetCupidApproved(ctx, tx, userID, time.Now())
	})
	if err != nil {
		return err
	}
	us.log.Info("Cupid approved", "user_id", userID, "approved_by", rd.UserID)
	return nil
}

func (us *userService) ListMatches(ctx context.Context, batchNumber int) ([]RevealedMatch, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: not logged in", apperrors.ErrUnauthorized)
	}
	rows, err := us.matchRepo.ListForUser(ctx, nil, batchNumber, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	out := make([]RevealedMatch, 0, len(rows))
	for _, m := range rows {
		if m.RevealedAt == nil {
			continue
		}
		out = append(out, RevealedMatch{
			TargetUserID: m.TargetUserID,
			MatchType:    m.MatchType,
			RevealedAt:   *m.RevealedAt,
		})
	}
	return out, nil
}
