package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchmaker-backend/internal/services"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

// PipelineHandler exposes the operator surface of the batch pipeline.
// Every route behind it is admin-gated by the router.
type PipelineHandler struct {
	scoringService    services.ScoringService
	matcherService    services.MatcherService
	assignmentService services.AssignmentService
	curationService   services.CurationService
	batchService      services.BatchService
}

func NewPipelineHandler(
	scoringService services.ScoringService,
	matcherService services.MatcherService,
	assignmentService services.AssignmentService,
	curationService services.CurationService,
	batchService services.BatchService,
) *PipelineHandler {
	return &PipelineHandler{
		scoringService:    scoringService,
		matcherService:    matcherService,
		assignmentService: assignmentService,
		curationService:   curationService,
		batchService:      batchService,
	}
}

func partitionParam(c *gin.Context) (types.Partition, bool) {
	raw := c.DefaultQuery("partition", string(types.PartitionProduction))
	partition, err := types.ParsePartition(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return "", false
	}
	return partition, true
}

func (ph *PipelineHandler) GetCurrentBatch(c *gin.Context) {
	batch, err := ph.batchService.GetCurrent(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (ph *PipelineHandler) GetBatch(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	batch, err := ph.batchService.GetByNumber(c.Request.Context(), batchNumber)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (ph *PipelineHandler) CreateNextBatch(c *gin.Context) {
	batch, err := ph.batchService.CreateNext(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (ph *PipelineHandler) RunScoring(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	partition, ok := partitionParam(c)
	if !ok {
		return
	}
	written, err := ph.scoringService.RunScoring(c.Request.Context(), batchNumber, partition)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores_written": written})
}

func (ph *PipelineHandler) RunMatching(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	partition, ok := partitionParam(c)
	if !ok {
		return
	}
	report, err := ph.matcherService.RunMatching(c.Request.Context(), batchNumber, partition)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ph *PipelineHandler) AssignCupids(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	partition, ok := partitionParam(c)
	if !ok {
		return
	}
	created, err := ph.assignmentService.AssignCupids(c.Request.Context(), batchNumber, partition)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments_created": created})
}

func (ph *PipelineHandler) RefreshShortlists(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	partition, ok := partitionParam(c)
	if !ok {
		return
	}
	updated, err := ph.assignmentService.RefreshShortlists(c.Request.Context(), batchNumber, partition)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shortlists_updated": updated})
}

func (ph *PipelineHandler) PromoteSelections(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	partition, ok := partitionParam(c)
	if !ok {
		return
	}
	report, err := ph.curationService.PromoteSelections(c.Request.Context(), batchNumber, partition)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ph *PipelineHandler) RevealMatches(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	partition, ok := partitionParam(c)
	if !ok {
		return
	}
	revealed, err := ph.batchService.RevealMatches(c.Request.Context(), batchNumber, partition)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches_revealed": revealed})
}

func (ph *PipelineHandler) ResetBatch(c *gin.Context) {
	batchNumber, ok := batchParam(c)
	if !ok {
		return
	}
	report, err := ph.batchService.ResetBatch(c.Request.Context(), batchNumber)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
