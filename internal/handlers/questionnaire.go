package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/requestdata"
	"github.com/yungbote/matchmaker-backend/internal/services"
)

type QuestionnaireHandler struct {
	schema          *questionnaire.Schema
	responseService services.ResponseService
}

func NewQuestionnaireHandler(schema *questionnaire.Schema, responseService services.ResponseService) *QuestionnaireHandler {
	return &QuestionnaireHandler{schema: schema, responseService: responseService}
}

func (qh *QuestionnaireHandler) GetSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": qh.schema.Version, "questions": qh.schema.Questions})
}

func (qh *QuestionnaireHandler) Submit(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		abortWithError(c, apperrors.ErrUnauthorized)
		return
	}
	var req struct {
		Answers []questionnaire.SubmittedAnswer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	response, err := qh.responseService.Submit(c.Request.Context(), rd.UserID, req.Answers)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": response.ID, "submitted_at": response.SubmittedAt})
}

func (qh *QuestionnaireHandler) GetMine(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		abortWithError(c, apperrors.ErrUnauthorized)
		return
	}
	response, err := qh.responseService.GetNormalized(c.Request.Context(), rd.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
