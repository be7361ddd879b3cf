package handlers

import (
	"net/http"

	"hangout-service/internal/models"
	"hangout-service/internal/server/service"

	"github.com/gin-gonic/gin"
)

type VotingHandler struct {
	pollService *service.PollService
	access      *Access
}

func NewVotingHandler(pollService *service.PollService, access *Access) *VotingHandler {
	return &VotingHandler{pollService: pollService, access: access}
}

// @Summary Toggle a vote
// @Description Casting the same vote twice removes it. Single-choice polls keep one vote per user.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param option_id path int true "Option ID"
// @Param request body models.VoteRequest false "Vote Request"
// @Success 200 {object} models.VoteResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/options/{option_id}/vote [post]
func (h *VotingHandler) CastVote(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	optionID, ok := uintParam(c, "option_id")
	if !ok {
		return
	}

	var req models.VoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	weight := models.DefaultVoteWeight
	if req.Weight != nil {
		weight = *req.Weight
	}

	actor, err := h.access.actor(c, planID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.pollService.CastVote(c.Request.Context(), planID, optionID, actor, req.VoteType, weight)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Current tally
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.Tally
// @Router /plans/{id}/tally [get]
func (h *VotingHandler) GetTally(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	tally, err := h.pollService.Tally(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}

// @Summary Evaluate consensus
// @Description Read-only point-in-time outcome
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.ConsensusOutcome
// @Router /plans/{id}/consensus [get]
func (h *VotingHandler) GetConsensus(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	outcome, err := h.pollService.EvaluateConsensus(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
