package server

import (
	"time"

	"hangout-service/internal/server/handlers"
	"hangout-service/internal/server/middleware"
	"hangout-service/internal/server/repository"
	"hangout-service/internal/server/service"
	"hangout-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services is the hangout core wired over one store and one set of sinks
type Services struct {
	Store        *repository.Store
	Hangouts     *service.HangoutService
	Polls        *service.PollService
	Participants *service.ParticipantService
	RSVPs        *service.RSVPService
}

func NewServices(db *gorm.DB, dispatcher service.Dispatcher, archiver service.Archiver) *Services {
	store := repository.NewStore(db)
	pub := service.NewPublisher(store, dispatcher, archiver)
	hangouts := service.NewHangoutService(store, pub)

	return &Services{
		Store:        store,
		Hangouts:     hangouts,
		Polls:        service.NewPollService(store, hangouts, pub),
		Participants: service.NewParticipantService(store, pub),
		RSVPs:        service.NewRSVPService(store, pub),
	}
}

// RouterConfig carries the transport settings of the HTTP API
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string

	// RateLimiter is optional; without it requests are not limited
	RateLimiter *middleware.RateLimitMiddleware
	RateLimit   int
	RateWindow  time.Duration

	// Access defaults to handlers.PublicPlans
	Access handlers.AccessChecker

	// Hub is optional; without it the websocket route is not mounted
	Hub *websocket.Hub
}

func NewRouter(svc *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LogApi(), middleware.CORS(cfg.AllowedOrigins))

	access := handlers.NewAccess(svc.Hangouts, svc.Participants, cfg.Access)
	h := &Handlers{
		Plans:        handlers.NewPlanHandler(svc.Hangouts, access),
		Options:      handlers.NewOptionHandler(svc.Polls, access),
		Votes:        handlers.NewVotingHandler(svc.Polls, access),
		Participants: handlers.NewParticipantHandler(svc.Participants, access),
		RSVPs:        handlers.NewRSVPHandler(svc.RSVPs, access),
	}
	if cfg.Hub != nil {
		h.WS = handlers.NewWSHandler(cfg.Hub, access)
	}

	SetupRoutes(router, cfg, h)
	return router
}
