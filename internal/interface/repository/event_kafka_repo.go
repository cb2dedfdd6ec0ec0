package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/domain/repository"
	"table-reservation-service/pkg/logger"
	"table-reservation-service/pkg/utils"
)

// KafkaEventRepository publishes reservation lifecycle events to a Kafka topic
type KafkaEventRepository struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaEventRepository creates an asynchronous Kafka publisher. Delivery
// failures are logged from the writer's completion callback.
func NewKafkaEventRepository(brokers []string, topic string, logger logger.Logger) repository.EventRepository {
	r := &KafkaEventRepository{logger: logger}
	r.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   r.completion,
	}
	return r
}

// eventEnvelope is the message shape consumers of the reservation topic decode
type eventEnvelope struct {
	Entity     string              `json:"entity"`
	Action     string              `json:"action"`
	ResourceID string              `json:"resourceId"`
	Topic      string              `json:"topic"`
	Metadata   map[string]string   `json:"metadata"`
	Data       *entity.Reservation `json:"data"`
}

// Publish enqueues the event keyed by reservation id so one reservation's events stay ordered
func (r *KafkaEventRepository) Publish(ctx context.Context, event entity.ReservationEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (r *KafkaEventRepository) Close() error {
	return r.writer.Close()
}

func (r *KafkaEventRepository) completion(messages []kafka.Message, err error) {
	if err != nil {
		r.logger.Error("Failed to deliver reservation events", "count", len(messages), "error", err)
		return
	}
	for _, m := range messages {
		r.logger.Debug("Reservation event delivered",
			"key", string(m.Key),
			"partition", m.Partition,
			"offset", m.Offset)
	}
}

func encodeEvent(event entity.ReservationEvent) (kafka.Message, error) {
	entityName, action, _ := strings.Cut(string(event.Type), ".")

	metadata := map[string]string{
		"status":     string(event.Status),
		"occurredAt": utils.FormatTimestamp(event.OccurredAt),
	}
	if event.Role != "" {
		metadata["role"] = event.Role
	}

	value, err := json.Marshal(eventEnvelope{
		Entity:     entityName,
		Action:     action,
		ResourceID: event.ReservationID,
		Topic:      string(event.Type),
		Metadata:   metadata,
		Data:       event.Reservation,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	return kafka.Message{
		Key:   []byte(event.ReservationID),
		Value: value,
		Time:  event.OccurredAt,
	}, nil
}
