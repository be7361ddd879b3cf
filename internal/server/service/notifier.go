package service

import (
	"context"
	"log/slog"

	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"

	"github.com/google/uuid"
)

// Dispatcher delivers plan events to the outside world. Implementations must
// not assume delivery is acknowledged by the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.PlanEvent) error
}

// Archiver stores the final shape of a plan once it reaches a terminal phase
type Archiver interface {
	Archive(ctx context.Context, snapshot *models.PlanSnapshot) error
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, models.PlanEvent) error { return nil }

// eventBuffer collects side effects inside a transaction so they can be
// released only after commit
type eventBuffer struct {
	events  []models.PlanEvent
	archive []uint
}

func (b *eventBuffer) add(t models.EventType, planID, userID uint, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	b.events = append(b.events, models.PlanEvent{
		ID:         uuid.NewString(),
		Type:       t,
		PlanID:     planID,
		UserID:     userID,
		Payload:    payload,
		OccurredAt: timeNow(),
	})
}

func (b *eventBuffer) archivePlan(planID uint) {
	b.archive = append(b.archive, planID)
}

// Publisher releases buffered events and archives after a transaction committed
type Publisher struct {
	store      *repository.Store
	dispatcher Dispatcher
	archiver   Archiver
}

// NewPublisher creates a Publisher. A nil dispatcher drops events and a nil
// archiver skips archiving.
func NewPublisher(store *repository.Store, dispatcher Dispatcher, archiver Archiver) *Publisher {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &Publisher{store: store, dispatcher: dispatcher, archiver: archiver}
}

// publish never fails: the change it reports is already committed
func (p *Publisher) publish(ctx context.Context, b *eventBuffer) {
	if p == nil || b == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	for _, event := range b.events {
		if err := p.dispatcher.Dispatch(ctx, event); err != nil {
			slog.Warn("Failed to dispatch plan event", "type", event.Type, "planID", event.PlanID, "error", err)
		}
	}

	if p.archiver == nil {
		return
	}
	for _, planID := range b.archive {
		snapshot, err := loadSnapshot(ctx, p.store.Repos(), planID)
		if err != nil {
			slog.Warn("Failed to load plan snapshot for archive", "planID", planID, "error", err)
			continue
		}
		if err := p.archiver.Archive(ctx, snapshot); err != nil {
			slog.Warn("Failed to archive plan", "planID", planID, "error", err)
		}
	}
}
