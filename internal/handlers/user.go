package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/matchmaker-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uh *UserHandler) ListMatches(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	matches, err := uh.userService.ListMatches(c.Request.Context(), batchNumber)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (uh *UserHandler) ApproveCupid(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := uh.userService.ApproveCupid(c.Request.Context(), userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func batchParam(c *gin.Context) (int, bool) {
	batchNumber, err := strconv.Atoi(c.Param("batch"))
	if err != nil || batchNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch number"})
		return 0, false
	}
	return batchNumber, true
}
