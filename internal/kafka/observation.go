package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/iamrekas/geyserbench/internal/config"
	"github.com/iamrekas/geyserbench/internal/domain"
)

// ObservationPublisher mirrors race observations to Kafka for offline
// analysis. The local log file stays the authoritative audit trail.
type ObservationPublisher struct {
	writer *kafka.Writer
	Topic  string
}

func NewObservationPublisher(cfg config.Config) *ObservationPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopicObservation,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &ObservationPublisher{writer: writer, Topic: cfg.KafkaTopicObservation}
}

// Publish sends a single observation, keyed by signature so all arrivals for
// one race land on the same partition.
func (p *ObservationPublisher) Publish(ctx context.Context, obs domain.Observation) error {
	value, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(obs.Signature),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *ObservationPublisher) Close() error {
	return p.writer.Close()
}
