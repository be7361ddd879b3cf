package notify

import (
	"context"

	"hangout-service/internal/models"
)

type planEventPublisher interface {
	PublishPlanEvent(ctx context.Context, event models.PlanEvent) error
}

// RedisDispatcher relays plan events over redis pub/sub to every server instance
type RedisDispatcher struct {
	publisher planEventPublisher
}

func NewRedisDispatcher(publisher planEventPublisher) *RedisDispatcher {
	return &RedisDispatcher{publisher: publisher}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, event models.PlanEvent) error {
	return d.publisher.PublishPlanEvent(ctx, event)
}
