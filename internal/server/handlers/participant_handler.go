package handlers

import (
	"net/http"

	"hangout-service/internal/models"
	"hangout-service/internal/server/service"

	"github.com/gin-gonic/gin"
)

type ParticipantHandler struct {
	participantService *service.ParticipantService
	access             *Access
}

func NewParticipantHandler(participantService *service.ParticipantService, access *Access) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService, access: access}
}

// @Summary List participants
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {array} models.Participant
// @Router /plans/{id}/participants [get]
func (h *ParticipantHandler) ListParticipants(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	participants, err := h.participantService.ListParticipants(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// @Summary Join a plan
// @Description Idempotent. Existing participants are returned unchanged.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.Participant
// @Failure 403 {object} models.ErrorResponse
// @Router /plans/{id}/participants/me [post]
func (h *ParticipantHandler) Join(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	actor, err := h.access.actor(c, planID)
	if err != nil {
		respondError(c, err)
		return
	}

	participant, err := h.participantService.EnsureParticipant(c.Request.Context(), planID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participant)
}

// @Summary Invite a participant
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param request body models.InviteRequest true "Invite Request"
// @Success 200 {object} models.Participant
// @Failure 403 {object} models.ErrorResponse
// @Router /plans/{id}/participants [post]
func (h *ParticipantHandler) Invite(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.Invite(c.Request.Context(), planID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participant)
}

// @Summary Update a participant
// @Description Creator only. Toggles mandatory, co-host and edit rights.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param user_id path int true "User ID"
// @Param request body models.UpdateParticipantRequest true "Update Participant Request"
// @Success 200 {object} models.Participant
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /plans/{id}/participants/{user_id} [patch]
func (h *ParticipantHandler) UpdateParticipant(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.UpdateParticipant(c.Request.Context(), planID, userID, targetID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participant)
}
