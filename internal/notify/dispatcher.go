package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hangout-service/internal/models"
	"hangout-service/internal/server/service"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

// Fanout hands every event to all sinks and joins their errors
type Fanout []service.Dispatcher

func (f Fanout) Dispatch(ctx context.Context, event models.PlanEvent) error {
	var errs []error
	for _, d := range f {
		if err := d.Dispatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async moves delivery off the request path. Events are delivered in the
// order they were accepted by a single worker.
type Async struct {
	next    service.Dispatcher
	timeout time.Duration
	queue   chan models.PlanEvent

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(next service.Dispatcher, size int, timeout time.Duration) *Async {
	if size <= 0 {
		size = 256
	}
	a := &Async{
		next:    next,
		timeout: timeout,
		queue:   make(chan models.PlanEvent, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Dispatch(_ context.Context, event models.PlanEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrDispatcherClosed
	}

	select {
	case a.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for event := range a.queue {
		a.deliver(event)
	}
}

func (a *Async) deliver(event models.PlanEvent) {
	ctx := context.Background()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if err := a.next.Dispatch(ctx, event); err != nil {
		slog.Warn("Failed to deliver plan event", "type", event.Type, "planID", event.PlanID, "error", err)
	}
}

// Close stops accepting events and waits until the queue is drained
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
