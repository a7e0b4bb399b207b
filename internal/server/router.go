package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/matchmaker-backend/internal/handlers"
	"github.com/yungbote/matchmaker-backend/internal/middleware"
	"github.com/yungbote/matchmaker-backend/internal/utils"
)

type RouterConfig struct {
	AuthHandler          *handlers.AuthHandler
	UserHandler          *handlers.UserHandler
	QuestionnaireHandler *handlers.QuestionnaireHandler
	CupidHandler         *handlers.CupidHandler
	PipelineHandler      *handlers.PipelineHandler
	AuthMiddleware       *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("matchmaker"))

	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Refresh-Token", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.GET("/user/matches/:batch", cfg.UserHandler.ListMatches)
	protected.GET("/questionnaire", cfg.QuestionnaireHandler.GetSchema)
	protected.POST("/questionnaire", cfg.QuestionnaireHandler.Submit)
	protected.GET("/questionnaire/mine", cfg.QuestionnaireHandler.GetMine)

	// Curation
	cupid := protected.Group("/cupid")
	cupid.Use(cfg.AuthMiddleware.RequireCupid())
	cupid.GET("/assignments/:batch", cfg.CupidHandler.ListAssignments)
	cupid.POST("/assignments/:id/reject", cfg.CupidHandler.RejectCandidate)
	cupid.POST("/assignments/:id/revealed", cfg.CupidHandler.SetRevealedCount)

	// Operator
	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.GET("/batches/current", cfg.PipelineHandler.GetCurrentBatch)
	admin.GET("/batches/:batch", cfg.PipelineHandler.GetBatch)
	admin.POST("/batches", cfg.PipelineHandler.CreateNextBatch)
	admin.POST("/batches/:batch/score", cfg.PipelineHandler.RunScoring)
	admin.POST("/batches/:batch/match", cfg.PipelineHandler.RunMatching)
	admin.POST("/batches/:batch/assign", cfg.PipelineHandler.AssignCupids)
	admin.POST("/batches/:batch/refresh", cfg.PipelineHandler.RefreshShortlists)
	admin.POST("/batches/:batch/promote", cfg.PipelineHandler.PromoteSelections)
	admin.POST("/batches/:batch/reveal", cfg.PipelineHandler.RevealMatches)
	admin.POST("/batches/:batch/reset", cfg.PipelineHandler.ResetBatch)
	admin.POST("/users/:id/approve-cupid", cfg.UserHandler.ApproveCupid)

	return router
}
