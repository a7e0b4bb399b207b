package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/matchmaker-backend/internal/db"
	"github.com/yungbote/matchmaker-backend/internal/handlers"
	"github.com/yungbote/matchmaker-backend/internal/locks"
	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/middleware"
	"github.com/yungbote/matchmaker-backend/internal/observability"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/server"
	"github.com/yungbote/matchmaker-backend/internal/services"
	"github.com/yungbote/matchmaker-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "matchmaker",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Database
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Question schema
	schema, err := questionnaire.Default()
	if err != nil {
		log.Error("Could not load question schema", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	responseRepo := repos.NewResponseRepo(thePG, log)
	scoreRepo := repos.NewScoreRepo(thePG, log)
	matchRepo := repos.NewMatchRepo(thePG, log)
	batchRepo := repos.NewBatchRepo(thePG, log)
	assignmentRepo := repos.NewAssignmentRepo(thePG, log)

	// Matching lock
	matchingLock, err := locks.New(log)
	if err != nil {
		log.Error("Could not init partition lock", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo, matchRepo)
	responseService := services.NewResponseService(thePG, log, schema, responseRepo)
	scoringService := services.NewScoringService(thePG, log, schema, userRepo, responseRepo, scoreRepo, batchRepo)
	matcherService := services.NewMatcherService(thePG, log, matchingLock, scoreRepo, matchRepo, batchRepo)
	assignmentService := services.NewAssignmentService(thePG, log, userRepo, scoreRepo, matchRepo, batchRepo, assignmentRepo)
	curationService := services.NewCurationService(thePG, log, assignmentRepo, matchRepo, batchRepo)
	batchService := services.NewBatchService(thePG, log, batchRepo, scoreRepo, matchRepo, assignmentRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	questionnaireHandler := handlers.NewQuestionnaireHandler(schema, responseService)
	cupidHandler := handlers.NewCupidHandler(curationService)
	pipelineHandler := handlers.NewPipelineHandler(scoringService, matcherService, assignmentService, curationService, batchService)

	// Middleware + router
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:          authHandler,
		UserHandler:          userHandler,
		QuestionnaireHandler: questionnaireHandler,
		CupidHandler:         cupidHandler,
		PipelineHandler:      pipelineHandler,
		AuthMiddleware:       authMiddleware,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
