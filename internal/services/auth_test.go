package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/requestdata"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

func TestAuthLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := &types.User{
		Email:     "Login.Test@Example.com",
		Password:  "hunter2hunter2",
		FirstName: "Login",
		LastName:  "Test",
	}
	if err := env.auth.RegisterUser(ctx, user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	// Emails are normalized so a re-registration with different case
	// still collides.
	dup := &types.User{Email: "login.test@example.com", Password: "hunter2hunter2", FirstName: "A", LastName: "B"}
	if err := env.auth.RegisterUser(ctx, dup); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("duplicate email should fail validation, got %v", err)
	}
	short := &types.User{Email: "short@example.com", Password: "short", FirstName: "A", LastName: "B"}
	if err := env.auth.RegisterUser(ctx, short); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("short password should fail validation, got %v", err)
	}

	if _, _, err := env.auth.LoginUser(ctx, "login.test@example.com", "wrong-password"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("wrong password should be unauthorized, got %v", err)
	}
	access, refresh, err := env.auth.LoginUser(ctx, "login.test@example.com", "hunter2hunter2")
	if err != nil || access == "" || refresh == "" {
		t.Fatalf("LoginUser: err=%v access=%q refresh=%q", err, access, refresh)
	}

	authedCtx, err := env.auth.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != user.ID || rd.IsAdmin || rd.IsCupid {
		t.Fatalf("unexpected request data: %+v", rd)
	}
	if _, err := env.auth.SetContextFromToken(ctx, "not-a-jwt"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("garbage token should be unauthorized, got %v", err)
	}

	// Refresh rotates both tokens and invalidates the old pair.
	rd.RefreshToken = refresh
	access2, refresh2, err := env.auth.RefreshUser(authedCtx)
	if err != nil || access2 == "" || refresh2 == refresh {
		t.Fatalf("RefreshUser: err=%v access=%q refresh=%q", err, access2, refresh2)
	}
	if _, _, err := env.auth.RefreshUser(authedCtx); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("spent refresh token should be unauthorized, got %v", err)
	}

	if err := env.auth.LogoutUser(authedCtx); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	rd.RefreshToken = refresh2
	if _, _, err := env.auth.RefreshUser(authedCtx); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("refresh after logout should be unauthorized, got %v", err)
	}
}

func TestResponseSubmitOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "once@example.com", true)

	answers := []questionnaire.SubmittedAnswer{{
		QuestionID: "kids",
		Answer:     questionnaire.AnswerValue{Kind: questionnaire.KindSingleSelect, Option: "Yes"},
		Preference: questionnaire.AnswerValue{Kind: questionnaire.KindSingleSelect, Option: "Yes"},
		Importance: questionnaire.ImportanceNice,
	}}
	if _, err := env.responses.Submit(ctx, user.ID, answers); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.responses.Submit(ctx, user.ID, answers); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("resubmission should fail validation, got %v", err)
	}

	bad := []questionnaire.SubmittedAnswer{{
		QuestionID: "kids",
		Answer:     questionnaire.AnswerValue{Kind: questionnaire.KindSingleSelect, Option: "Probably"},
	}}
	other := env.seedUser(t, "other@example.com", true)
	if _, err := env.responses.Submit(ctx, other.ID, bad); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("unknown option should fail validation, got %v", err)
	}

	got, err := env.responses.GetNormalized(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetNormalized: %v", err)
	}
	if a, ok := got.Answer("kids"); !ok || a.Answer.Option != "Yes" {
		t.Fatalf("unexpected stored answer: %+v", got.Answers)
	}
	if _, err := env.responses.GetNormalized(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("missing response should be not found, got %v", err)
	}
}

func TestApproveCupidRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending := env.seedUser(t, "cupid-pending@example.com", false)
	pending.IsCupid = true
	if err := env.db.Save(pending).Error; err != nil {
		t.Fatalf("mark cupid: %v", err)
	}
	admin := env.seedUser(t, "admin@example.com", false)

	memberCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: pending.ID})
	if err := env.users.ApproveCupid(memberCtx, pending.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("non-admin approval should be forbidden, got %v", err)
	}

	adminCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: admin.ID, IsAdmin: true})
	if err := env.users.ApproveCupid(adminCtx, pending.ID); err != nil {
		t.Fatalf("ApproveCupid: %v", err)
	}
	// Re-approval is a no-op, not an error.
	if err := env.users.ApproveCupid(adminCtx, pending.ID); err != nil {
		t.Fatalf("repeat ApproveCupid: %v", err)
	}
	reloaded, err := env.userRepo.GetByID(ctx, nil, pending.ID)
	if err != nil || reloaded == nil || !reloaded.CupidApproved() {
		t.Fatalf("cupid should be approved: err=%v user=%+v", err, reloaded)
	}

	plain := env.seedUser(t, "plain@example.com", false)
	if err := env.users.ApproveCupid(adminCtx, plain.ID); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("approving a non-cupid should fail validation, got %v", err)
	}
}
