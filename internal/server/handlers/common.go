package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"hangout-service/internal/models"
	"hangout-service/internal/server/middleware"
	"hangout-service/internal/server/service"
	"hangout-service/pkg/response"

	"github.com/gin-gonic/gin"
)

var errUnauthenticated = errors.New("unauthenticated")

// AccessChecker decides whether a user who is not yet a participant may see
// and join a plan. Friend graphs live outside this service.
type AccessChecker interface {
	CanAccess(ctx context.Context, plan *models.Plan, userID uint) bool
}

// AccessCheckerFunc adapts a plain function to AccessChecker
type AccessCheckerFunc func(ctx context.Context, plan *models.Plan, userID uint) bool

func (f AccessCheckerFunc) CanAccess(ctx context.Context, plan *models.Plan, userID uint) bool {
	return f(ctx, plan, userID)
}

// PublicPlans opens public plans to everyone and nothing else
type PublicPlans struct{}

func (PublicPlans) CanAccess(_ context.Context, plan *models.Plan, _ uint) bool {
	return plan.Privacy == models.PrivacyPublic
}

// Access resolves the caller of a plan-scoped request
type Access struct {
	hangouts     *service.HangoutService
	participants *service.ParticipantService
	checker      AccessChecker
}

func NewAccess(hangouts *service.HangoutService, participants *service.ParticipantService, checker AccessChecker) *Access {
	if checker == nil {
		checker = PublicPlans{}
	}
	return &Access{hangouts: hangouts, participants: participants, checker: checker}
}

// actor builds the service actor for the authenticated user
func (a *Access) actor(c *gin.Context, planID uint) (service.Actor, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return service.Actor{}, errUnauthenticated
	}
	plan, err := a.hangouts.GetPlan(c.Request.Context(), planID)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{
		UserID:    userID,
		CanAccess: a.checker.CanAccess(c.Request.Context(), plan, userID),
	}, nil
}

// viewer returns the caller when they may read the plan: participants always,
// everyone else through the access checker
func (a *Access) viewer(c *gin.Context, planID uint) (uint, error) {
	actor, err := a.actor(c, planID)
	if err != nil {
		return 0, err
	}
	if actor.CanAccess {
		return actor.UserID, nil
	}
	if _, err := a.participants.GetParticipant(c.Request.Context(), planID, actor.UserID); err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			return 0, service.ErrNotPermitted
		}
		return 0, err
	}
	return actor.UserID, nil
}

func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, errUnauthenticated)
	}
	return userID, ok
}

// uintParam parses a positive numeric path parameter, answering 400 when it is malformed
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func planIDParam(c *gin.Context) (uint, bool) {
	return uintParam(c, "id")
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    response.ErrCodeParamInvalid,
		Error:   "invalid_request",
		Message: message,
	})
}

// respondError maps domain errors onto HTTP statuses. Anything else is a 500.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, errUnauthenticated) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    response.ErrCodeUnauthorized,
			Error:   "unauthorized",
			Message: response.Msg(response.ErrCodeUnauthorized),
		})
		return
	}

	if e, ok := service.AsError(err); ok {
		status, code := statusFor(e.Kind)
		c.JSON(status, models.ErrorResponse{
			Code:    code,
			Error:   e.Code,
			Message: err.Error(),
		})
		return
	}

	slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Code:    response.ErrCodeInternal,
		Error:   "internal_error",
		Message: response.Msg(response.ErrCodeInternal),
	})
}

func statusFor(kind service.ErrorKind) (int, int) {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest, response.ErrCodeParamInvalid
	case service.KindNotFound:
		return http.StatusNotFound, response.ErrCodeNotFound
	case service.KindStateConflict:
		return http.StatusConflict, response.ErrCodeConflict
	case service.KindForbidden:
		return http.StatusForbidden, response.ErrCodeForbidden
	default:
		return http.StatusInternalServerError, response.ErrCodeInternal
	}
}
