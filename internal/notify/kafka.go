package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"hangout-service/internal/models"

	"github.com/IBM/sarama"
	kafkago "github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

// planKey keys every message by plan so a plan's events share a partition
func planKey(planID uint) []byte {
	return []byte(strconv.FormatUint(uint64(planID), 10))
}

// SaramaDispatcher publishes plan events through a sarama sync producer
type SaramaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaDispatcher(producer sarama.SyncProducer, topic string) *SaramaDispatcher {
	return &SaramaDispatcher{producer: producer, topic: topic}
}

func (d *SaramaDispatcher) Dispatch(_ context.Context, event models.PlanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.ByteEncoder(planKey(event.PlanID)),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(eventTypeHeader), Value: []byte(event.Type)},
		},
	}
	if _, _, err := d.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send event to kafka: %w", err)
	}
	return nil
}

func (d *SaramaDispatcher) Close() error {
	return d.producer.Close()
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaGoDispatcher publishes plan events through a kafka-go writer
type KafkaGoDispatcher struct {
	writer messageWriter
}

func NewKafkaGoDispatcher(writer messageWriter) *KafkaGoDispatcher {
	return &KafkaGoDispatcher{writer: writer}
}

func (d *KafkaGoDispatcher) Dispatch(ctx context.Context, event models.PlanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = d.writer.WriteMessages(ctx, kafkago.Message{
		Key:   planKey(event.PlanID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

func (d *KafkaGoDispatcher) Close() error {
	return d.writer.Close()
}
