package main

// @title           Hangout Service API
// @version         1.0
// @description     Group hangout planning: polls, consensus and RSVPs
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "hangout-service/docs"
	"hangout-service/internal/adapters/database"
	"hangout-service/internal/adapters/kafka"
	"hangout-service/internal/config"
	"hangout-service/internal/notify"
	"hangout-service/internal/server"
	"hangout-service/internal/server/middleware"
	"hangout-service/internal/server/service"
	"hangout-service/internal/services"
	"hangout-service/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting hangout server")

	db, err := database.Open(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it this instance only serves its own websocket clients
	var redisService *services.RedisService
	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without pub/sub relay and rate limiting", "error", err)
	} else {
		defer redisClient.Close()
		redisService = services.NewRedisService(redisClient)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(redisService, cfg.Server.AllowedOrigins)
	go hub.Run()

	sinks, closeSinks, err := buildDispatchers(cfg, redisService, hub)
	if err != nil {
		slog.Error("Failed to set up event dispatchers", "error", err)
		os.Exit(1)
	}
	dispatcher := notify.NewAsync(sinks, 1024, 5*time.Second)

	var archiver service.Archiver
	if cfg.MinIO.Enabled {
		minioClient, err := database.NewMinIOClient(context.Background(), cfg.MinIO)
		if err != nil {
			slog.Error("Failed to connect to MinIO", "error", err)
			os.Exit(1)
		}
		archiver = notify.NewMinIOArchiver(minioClient)
	}

	svc := server.NewServices(db, dispatcher, archiver)

	routerCfg := server.RouterConfig{
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
		Hub:            hub,
	}
	if redisService != nil {
		routerCfg.RateLimiter = middleware.NewRateLimitMiddleware(redisService)
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go service.RunSweeper(sweepCtx, svc.Hangouts, cfg.Sweep.Interval)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.NewRouter(svc, routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	stopSweeper()

	// Drain queued events before the sinks go away
	dispatcher.Close()
	closeSinks()
	hub.Stop()

	slog.Info("Server stopped")
}

// buildDispatchers assembles the event sinks. With redis the hub receives
// events through its subscription, otherwise it is fed directly.
func buildDispatchers(cfg *config.Config, redisService *services.RedisService, hub *websocket.Hub) (notify.Fanout, func(), error) {
	var sinks notify.Fanout
	closers := []func() error{}

	if redisService != nil {
		sinks = append(sinks, notify.NewRedisDispatcher(redisService))
	} else {
		sinks = append(sinks, hub)
	}

	if cfg.Kafka.Enabled {
		switch cfg.Kafka.Driver {
		case "kafka-go":
			d := notify.NewKafkaGoDispatcher(kafka.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
			sinks = append(sinks, d)
			closers = append(closers, d.Close)
		default:
			producer, err := kafka.InitKafkaProducer(cfg.Kafka.Brokers)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
			}
			d := notify.NewSaramaDispatcher(producer, cfg.Kafka.Topic)
			sinks = append(sinks, d)
			closers = append(closers, d.Close)
		}
		slog.Info("Publishing plan events to kafka", "driver", cfg.Kafka.Driver, "topic", cfg.Kafka.Topic)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("Failed to close event sink", "error", err)
			}
		}
	}
	return sinks, closeAll, nil
}
