package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"hangout-service/internal/adapters/kafka"
	"hangout-service/internal/models"
	"hangout-service/internal/server/service"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(planID uint) models.PlanEvent {
	return models.PlanEvent{
		ID:         "evt",
		Type:       models.EventVoteCast,
		PlanID:     planID,
		UserID:     3,
		Payload:    map[string]interface{}{"option_id": 9},
		OccurredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

type recorder struct {
	mu     sync.Mutex
	events []models.PlanEvent
	err    error
}

func (r *recorder) Dispatch(_ context.Context, event models.PlanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recorder) received() []models.PlanEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PlanEvent(nil), r.events...)
}

func TestSaramaDispatcher(t *testing.T) {
	t.Run("sends the event as JSON", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, kafka.NewProducerConfig())
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var got models.PlanEvent
			if err := json.Unmarshal(val, &got); err != nil {
				return err
			}
			if got.PlanID != 5 || got.Type != models.EventVoteCast {
				return errors.New("unexpected event payload")
			}
			return nil
		})

		d := NewSaramaDispatcher(producer, "plan-events")
		require.NoError(t, d.Dispatch(context.Background(), testEvent(5)))
		require.NoError(t, d.Close())
	})

	t.Run("surfaces producer failures", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, kafka.NewProducerConfig())
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		d := NewSaramaDispatcher(producer, "plan-events")
		err := d.Dispatch(context.Background(), testEvent(5))
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, d.Close())
	})
}

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaGoDispatcher(t *testing.T) {
	w := &fakeWriter{}
	d := NewKafkaGoDispatcher(w)

	require.NoError(t, d.Dispatch(context.Background(), testEvent(12)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "12", string(w.msgs[0].Key))
	assert.Equal(t, eventTypeHeader, w.msgs[0].Headers[0].Key)
	assert.Equal(t, "vote.cast", string(w.msgs[0].Headers[0].Value))

	var got models.PlanEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, uint(12), got.PlanID)

	w.err = errors.New("broker down")
	assert.Error(t, d.Dispatch(context.Background(), testEvent(12)))
}

type fakePublisher struct {
	events []models.PlanEvent
}

func (p *fakePublisher) PublishPlanEvent(_ context.Context, event models.PlanEvent) error {
	p.events = append(p.events, event)
	return nil
}

func TestRedisDispatcher(t *testing.T) {
	p := &fakePublisher{}
	require.NoError(t, NewRedisDispatcher(p).Dispatch(context.Background(), testEvent(4)))
	require.Len(t, p.events, 1)
	assert.Equal(t, uint(4), p.events[0].PlanID)
}

type fakeUploader struct {
	objects map[string][]byte
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, objectName, contentType string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.objects[objectName] = data
	return "http://minio/plan-archive/" + objectName, nil
}

func TestMinIOArchiver(t *testing.T) {
	u := &fakeUploader{objects: map[string][]byte{}}
	a := NewMinIOArchiver(u)

	snapshot := &models.PlanSnapshot{
		Plan:    models.Plan{ID: 8, Title: "Dinner", Phase: models.PhaseConfirmed},
		Options: []models.Option{{ID: 1, PlanID: 8, Title: "Tacos"}},
	}
	require.NoError(t, a.Archive(context.Background(), snapshot))

	data, ok := u.objects["plans/8/confirmed.json"]
	require.True(t, ok)
	var got models.PlanSnapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Dinner", got.Plan.Title)
	assert.Len(t, got.Options, 1)

	u.err = errors.New("bucket missing")
	assert.Error(t, a.Archive(context.Background(), snapshot))
}

func TestFanout(t *testing.T) {
	ok := &recorder{}
	failing := &recorder{err: errors.New("sink down")}
	f := Fanout{failing, ok}

	err := f.Dispatch(context.Background(), testEvent(1))
	assert.ErrorContains(t, err, "sink down")
	assert.Len(t, ok.received(), 1, "a failing sink must not starve the others")
	assert.Len(t, failing.received(), 1)
}

type gatedDispatcher struct {
	started chan struct{}
	release chan struct{}
	rec     recorder
}

func (g *gatedDispatcher) Dispatch(ctx context.Context, event models.PlanEvent) error {
	g.started <- struct{}{}
	<-g.release
	return g.rec.Dispatch(ctx, event)
}

func TestAsync(t *testing.T) {
	t.Run("delivers in order and drains on close", func(t *testing.T) {
		rec := &recorder{}
		a := NewAsync(rec, 16, time.Second)
		for i := uint(1); i <= 5; i++ {
			require.NoError(t, a.Dispatch(context.Background(), testEvent(i)))
		}
		a.Close()

		got := rec.received()
		require.Len(t, got, 5)
		for i, event := range got {
			assert.Equal(t, uint(i+1), event.PlanID)
		}

		assert.ErrorIs(t, a.Dispatch(context.Background(), testEvent(6)), ErrDispatcherClosed)
	})

	t.Run("rejects when the queue is full", func(t *testing.T) {
		g := &gatedDispatcher{started: make(chan struct{}, 4), release: make(chan struct{})}
		a := NewAsync(g, 1, time.Second)

		require.NoError(t, a.Dispatch(context.Background(), testEvent(1)))
		<-g.started
		require.NoError(t, a.Dispatch(context.Background(), testEvent(2)))
		assert.ErrorIs(t, a.Dispatch(context.Background(), testEvent(3)), ErrQueueFull)

		close(g.release)
		a.Close()
		assert.Len(t, g.rec.received(), 2)
	})
}

var _ service.Dispatcher = Fanout{}
var _ service.Archiver = (*MinIOArchiver)(nil)
