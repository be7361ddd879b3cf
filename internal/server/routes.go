package server

import (
	"net/http"

	"hangout-service/internal/server/handlers"
	"hangout-service/internal/server/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Plans        *handlers.PlanHandler
	Options      *handlers.OptionHandler
	Votes        *handlers.VotingHandler
	Participants *handlers.ParticipantHandler
	RSVPs        *handlers.RSVPHandler
	WS           *handlers.WSHandler
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(router *gin.Engine, cfg RouterConfig, h *Handlers) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check route
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Protected routes (require JWT authentication)
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))
	if cfg.RateLimiter != nil && cfg.RateLimit > 0 {
		protected.Use(cfg.RateLimiter.RateLimit(cfg.RateLimit, cfg.RateWindow))
	}
	{
		plans := protected.Group("/plans")
		plans.POST("", h.Plans.CreatePlan)
		plans.GET("", h.Plans.ListPlans)

		plan := plans.Group("/:id")
		{
			plan.GET("", h.Plans.GetPlan)
			plan.POST("/voting", h.Plans.OpenVoting)
			plan.POST("/finalize", h.Plans.Finalize)
			plan.POST("/close", h.Plans.ForceClose)
			plan.POST("/cancel", h.Plans.Cancel)
			plan.GET("/snapshot", h.Plans.Snapshot)

			// Option routes
			plan.GET("/options", h.Options.GetOptions)
			plan.POST("/options", h.Options.AddOption)
			plan.DELETE("/options/:option_id", h.Options.RemoveOption)

			// Vote routes
			plan.POST("/options/:option_id/vote", h.Votes.CastVote)
			plan.GET("/tally", h.Votes.GetTally)
			plan.GET("/consensus", h.Votes.GetConsensus)

			// Participant routes
			plan.GET("/participants", h.Participants.ListParticipants)
			plan.POST("/participants", h.Participants.Invite)
			plan.POST("/participants/me", h.Participants.Join)
			plan.PATCH("/participants/:user_id", h.Participants.UpdateParticipant)

			// RSVP routes
			plan.PUT("/rsvp", h.RSVPs.Respond)
			plan.GET("/rsvps", h.RSVPs.ListRSVPs)

			if h.WS != nil {
				plan.GET("/ws", h.WS.ServeWs)
			}
		}
	}
}
