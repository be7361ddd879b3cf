package handlers

import (
	"net/http"

	"hangout-service/internal/models"
	"hangout-service/internal/server/service"

	"github.com/gin-gonic/gin"
)

type OptionHandler struct {
	pollService *service.PollService
	access      *Access
}

func NewOptionHandler(pollService *service.PollService, access *Access) *OptionHandler {
	return &OptionHandler{pollService: pollService, access: access}
}

// @Summary Add an option to a plan
// @Description Open while planning, and while voting when late options are allowed
// @Tags options
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param request body models.AddOptionRequest true "Add Option Request"
// @Success 201 {object} models.Option
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/options [post]
func (h *OptionHandler) AddOption(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.AddOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	option, err := h.pollService.AddOption(c.Request.Context(), planID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, option)
}

// @Summary List a plan's options
// @Tags options
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {array} models.Option
// @Router /plans/{id}/options [get]
func (h *OptionHandler) GetOptions(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	options, err := h.pollService.ListOptions(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// @Summary Remove an option
// @Description Hosts only. Deletes the option's votes and re-evaluates consensus.
// @Tags options
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param option_id path int true "Option ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/options/{option_id} [delete]
func (h *OptionHandler) RemoveOption(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	optionID, ok := uintParam(c, "option_id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.pollService.RemoveOption(c.Request.Context(), planID, userID, optionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
