package handlers

import (
	"log/slog"

	"hangout-service/internal/websocket"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub    *websocket.Hub
	access *Access
}

func NewWSHandler(hub *websocket.Hub, access *Access) *WSHandler {
	return &WSHandler{hub: hub, access: access}
}

// @Summary Plan event stream
// @Description Upgrades to a WebSocket that receives every event of the plan. The token may be passed as a query parameter.
// @Tags plans
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param token query string false "JWT"
// @Router /plans/{id}/ws [get]
func (h *WSHandler) ServeWs(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	userID, err := h.access.viewer(c, planID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.hub.ServeWs(c.Writer, c.Request, userID, planID); err != nil {
		// Upgrade already wrote the HTTP error
		slog.Warn("WebSocket upgrade failed", "planID", planID, "userID", userID, "error", err)
	}
}
