package handlers

import (
	"net/http"

	"hangout-service/internal/models"
	"hangout-service/internal/server/service"

	"github.com/gin-gonic/gin"
)

type RSVPHandler struct {
	rsvpService *service.RSVPService
	access      *Access
}

func NewRSVPHandler(rsvpService *service.RSVPService, access *Access) *RSVPHandler {
	return &RSVPHandler{rsvpService: rsvpService, access: access}
}

// @Summary Answer an RSVP
// @Tags rsvp
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param request body models.RSVPRequest true "RSVP Request"
// @Success 200 {object} models.RSVP
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/rsvp [put]
func (h *RSVPHandler) Respond(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req models.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	actor, err := h.access.actor(c, planID)
	if err != nil {
		respondError(c, err)
		return
	}

	rsvp, err := h.rsvpService.Respond(c.Request.Context(), planID, actor, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rsvp)
}

// @Summary List RSVPs
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Router /plans/{id}/rsvps [get]
func (h *RSVPHandler) ListRSVPs(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	rsvps, err := h.rsvpService.ListRSVPs(ctx, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.rsvpService.Summary(ctx, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsvps": rsvps, "summary": summary})
}
