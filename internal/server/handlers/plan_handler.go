package handlers

import (
	"context"
	"net/http"

	"hangout-service/internal/models"
	"hangout-service/internal/server/service"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	hangoutService *service.HangoutService
	access         *Access
}

func NewPlanHandler(hangoutService *service.HangoutService, access *Access) *PlanHandler {
	return &PlanHandler{hangoutService: hangoutService, access: access}
}

// @Summary Create a plan
// @Description Create a plan with zero or more options. A single option lands directly in RSVP.
// @Tags plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePlanRequest true "Create Plan Request"
// @Success 201 {object} models.PlanDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	detail, err := h.hangoutService.CreatePlan(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// @Summary List my plans
// @Description Plans the caller created or participates in, newest first
// @Tags plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Plan
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	plans, err := h.hangoutService.ListPlans(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// @Summary Get a plan
// @Description Plan with options, participants, current consensus outcome and RSVP summary
// @Tags plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.PlanDetail
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	detail, err := h.hangoutService.GetPlanDetail(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// @Summary Open voting
// @Tags plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.Plan
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/voting [post]
func (h *PlanHandler) OpenVoting(c *gin.Context) {
	h.transition(c, h.hangoutService.OpenVoting)
}

// @Summary Finalize a plan
// @Description Idempotent. Finalizes a voting plan whose consensus is reached.
// @Tags plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.Plan
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/finalize [post]
func (h *PlanHandler) Finalize(c *gin.Context) {
	h.transition(c, h.hangoutService.Finalize)
}

// @Summary Force-close a poll
// @Description Creator only. Finalizes the last remaining option.
// @Tags plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.Plan
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /plans/{id}/close [post]
func (h *PlanHandler) ForceClose(c *gin.Context) {
	h.transition(c, h.hangoutService.ForceClose)
}

func (h *PlanHandler) transition(c *gin.Context, op func(ctx context.Context, planID, actorID uint) (*models.Plan, error)) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	plan, err := op(c.Request.Context(), planID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// @Summary Cancel a plan
// @Description Creator only. Idempotent on cancelled plans.
// @Tags plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param request body models.CancelPlanRequest false "Cancel Plan Request"
// @Success 200 {object} models.Plan
// @Failure 403 {object} models.ErrorResponse
// @Router /plans/{id}/cancel [post]
func (h *PlanHandler) Cancel(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CancelPlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	plan, err := h.hangoutService.Cancel(c.Request.Context(), planID, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// @Summary Export a plan snapshot
// @Tags plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} models.PlanSnapshot
// @Router /plans/{id}/snapshot [get]
func (h *PlanHandler) Snapshot(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	if _, err := h.access.viewer(c, planID); err != nil {
		respondError(c, err)
		return
	}

	snapshot, err := h.hangoutService.Snapshot(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
