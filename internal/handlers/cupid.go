package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/yungbote/matchmaker-backend/internal/pkg/errors"
	"github.com/yungbote/matchmaker-backend/internal/requestdata"
	"github.com/yungbote/matchmaker-backend/internal/services"
)

// CupidHandler is the curation surface: approved cupids working their
// assigned shortlists. Ownership is enforced by the service, not here.
type CupidHandler struct {
	curationService services.CurationService
}

func NewCupidHandler(curationService services.CurationService) *CupidHandler {
	return &CupidHandler{curationService: curationService}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		abortWithError(c, apperrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func (ch *CupidHandler) ListAssignments(c *gin.Context) {
	cupidID, ok := callerID(c)
	if !ok {
		return
	}
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	assignments, err := ch.curationService.ListAssignments(c.Request.Context(), cupidID, batchNumber)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (ch *CupidHandler) RejectCandidate(c *gin.Context) {
	cupidID, ok := callerID(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := ch.curationService.RejectCandidate(c.Request.Context(), assignmentID, cupidID, req.UserID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *CupidHandler) SetRevealedCount(c *gin.Context) {
	cupidID, ok := callerID(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}
	var req struct {
		Count *int `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Count == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := ch.curationService.SetRevealedCount(c.Request.Context(), assignmentID, cupidID, *req.Count); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
