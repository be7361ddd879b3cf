package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"hangout-service/internal/adapters/database"
	"hangout-service/internal/models"

	"github.com/redis/go-redis/v9"
)

const migrationStateKey = "db:migration:status"

type RedisService struct {
	client *database.RedisClient
}

func NewRedisService(client *database.RedisClient) *RedisService {
	return &RedisService{
		client: client,
	}
}

// =============================================================================
// PubSub Operations
// =============================================================================

// PublishPlanEvent fans an event out to every instance subscribed to the plan channel
func (r *RedisService) PublishPlanEvent(ctx context.Context, event models.PlanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := models.PlanChannel(event.PlanID)
	if err := r.client.GetClient().Publish(ctx, channel, data).Err(); err != nil {
		slog.Error("Failed to publish plan event", "planID", event.PlanID, "type", event.Type, "error", err)
		return err
	}

	slog.Debug("Published plan event", "channel", channel, "type", event.Type)
	return nil
}

func (r *RedisService) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	pubsub := r.client.GetClient().Subscribe(ctx, channels...)
	slog.Debug("Subscribed to channels", "channels", channels)
	return pubsub
}

func (r *RedisService) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	pubsub := r.client.GetClient().PSubscribe(ctx, patterns...)
	slog.Debug("Pattern subscribed to channels", "patterns", patterns)
	return pubsub
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit records a hit for key and reports whether it is still within limit for the sliding window
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.GetClient().Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return card.Val() < int64(limit), nil
}

// =============================================================================
// Migration State Management
// =============================================================================

func (r *RedisService) SetMigrationState(ctx context.Context, version string, status string) error {
	return r.client.GetClient().HSet(ctx, migrationStateKey, map[string]interface{}{
		"version":    version,
		"status":     status,
		"updated_at": time.Now().Unix(),
	}).Err()
}

func (r *RedisService) GetMigrationState(ctx context.Context) (map[string]string, error) {
	return r.client.GetClient().HGetAll(ctx, migrationStateKey).Result()
}

// MigrationCompleted reports whether the recorded state is a finished migration of version
func (r *RedisService) MigrationCompleted(ctx context.Context, version string) (bool, error) {
	state, err := r.GetMigrationState(ctx)
	if err != nil {
		return false, err
	}
	return state["version"] == version && state["status"] == "completed", nil
}
