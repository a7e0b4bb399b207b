package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/matchmaker-backend/internal/db"
	"github.com/yungbote/matchmaker-backend/internal/locks"
	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// testEnv wires every service against an in-memory sqlite database so
// the pipeline can run end to end without postgres.
type testEnv struct {
	db     *gorm.DB
	schema *questionnaire.Schema

	userRepo       repos.UserRepo
	responseRepo   repos.ResponseRepo
	scoreRepo      repos.ScoreRepo
	matchRepo      repos.MatchRepo
	batchRepo      repos.BatchRepo
	assignmentRepo repos.AssignmentRepo

	auth       AuthService
	responses  ResponseService
	scoring    ScoringService
	matcher    MatcherService
	assignment AssignmentService
	curation   CurationService
	batches    BatchService
	users      UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	schema, err := questionnaire.Default()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	env := &testEnv{db: gdb, schema: schema}
	env.userRepo = repos.NewUserRepo(gdb, log)
	env.responseRepo = repos.NewResponseRepo(gdb, log)
	env.scoreRepo = repos.NewScoreRepo(gdb, log)
	env.matchRepo = repos.NewMatchRepo(gdb, log)
	env.batchRepo = repos.NewBatchRepo(gdb, log)
	env.assignmentRepo = repos.NewAssignmentRepo(gdb, log)

	userTokenRepo := repos.NewUserTokenRepo(gdb, log)
	env.auth = NewAuthService(gdb, log, env.userRepo, userTokenRepo, "test-secret", 15*time.Minute, 24*time.Hour)
	env.responses = NewResponseService(gdb, log, schema, env.responseRepo)
	env.scoring = NewScoringService(gdb, log, schema, env.userRepo, env.responseRepo, env.scoreRepo, env.batchRepo)
	env.matcher = NewMatcherService(gdb, log, locks.NewMemoryLock(), env.scoreRepo, env.matchRepo, env.batchRepo)
	env.assignment = NewAssignmentService(gdb, log, env.userRepo, env.scoreRepo, env.matchRepo, env.batchRepo, env.assignmentRepo)
	env.curation = NewCurationService(gdb, log, env.assignmentRepo, env.matchRepo, env.batchRepo)
	env.batches = NewBatchService(gdb, log, env.batchRepo, env.scoreRepo, env.matchRepo, env.assignmentRepo)
	env.users = NewUserService(gdb, log, env.userRepo, env.matchRepo)
	return env
}

func (env *testEnv) seedUser(t *testing.T, email string, isTest bool) *types.User {
	t.Helper()
	u := &types.User{
		ID:         uuid.New(),
		Email:      email,
		Password:   "pw",
		FirstName:  "T",
		LastName:   "U",
		IsTestUser: isTest,
	}
	if err := env.db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (env *testEnv) seedCupid(t *testing.T, email string, isTest bool) *types.User {
	t.Helper()
	now := time.Now()
	u := &types.User{
		ID:              uuid.New(),
		Email:           email,
		Password:        "pw",
		FirstName:       "C",
		LastName:        "U",
		IsTestUser:      isTest,
		IsCupid:         true,
		CupidApprovedAt: &now,
	}
	if err := env.db.Create(u).Error; err != nil {
		t.Fatalf("seed cupid %s: %v", email, err)
	}
	return u
}

func (env *testEnv) seedBatch(t *testing.T, batchNumber int) *types.MatchingBatch {
	t.Helper()
	b := &types.MatchingBatch{
		ID:          uuid.New(),
		BatchNumber: batchNumber,
		Status:      types.BatchStatusPending,
	}
	if err := env.db.Create(b).Error; err != nil {
		t.Fatalf("seed batch %d: %v", batchNumber, err)
	}
	return b
}

// submitProfile files a questionnaire response with a gender
// dealbreaker plus weighted interests and kids answers.
func (env *testEnv) submitProfile(t *testing.T, user *types.User, gender string, wants []string, interests []string, kids string) {
	t.Helper()
	answers := []questionnaire.SubmittedAnswer{
		{
			QuestionID:  "gender",
			Answer:      questionnaire.AnswerValue{Kind: questionnaire.KindSingleSelect, Option: gender},
			Preference:  questionnaire.AnswerValue{Kind: questionnaire.KindMultiSelect, Options: wants},
			Importance:  questionnaire.ImportanceRequired,
			Dealbreaker: true,
		},
		{
			QuestionID: "interests",
			Answer:     questionnaire.AnswerValue{Kind: questionnaire.KindMultiSelect, Options: interests},
			Preference: questionnaire.AnswerValue{Kind: questionnaire.KindMultiSelect, Options: interests},
			Importance: questionnaire.ImportanceImportant,
		},
		{
			QuestionID: "kids",
			Answer:     questionnaire.AnswerValue{Kind: questionnaire.KindSingleSelect, Option: kids},
			Preference: questionnaire.AnswerValue{Kind: questionnaire.KindSingleSelect, Option: kids},
			Importance: questionnaire.ImportanceNice,
		},
	}
	if _, err := env.responses.Submit(context.Background(), user.ID, answers); err != nil {
		t.Fatalf("submit for %s: %v", user.Email, err)
	}
}
