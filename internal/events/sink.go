// Package events publishes scan lifecycle notifications to downstream
// consumers. Publishing is fire-and-forget: a sink failure is logged and
// never fails the scan cycle that produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/sawpanic/equityrun/internal/config"
)

// ScanEvent is the notification emitted after each completed cycle.
type ScanEvent struct {
	CycleID      string    `json:"cycle_id"`
	Status       string    `json:"status"`
	Candidates   int       `json:"candidates"`
	ExplosiveTop int       `json:"explosive_top"`
	UniverseSize int       `json:"universe_size"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Sink receives scan events.
type Sink interface {
	Publish(ctx context.Context, event ScanEvent)
	Close() error
}

// KafkaSink writes scan events to a Kafka topic.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink builds a sink from configuration. Returns nil when no
// brokers are configured, which callers treat as "sink disabled".
func NewKafkaSink(cfg config.KafkaConfig) *KafkaSink {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Publish sends one event. Errors are logged, not returned: the event sink
// is a best-effort collaborator.
func (s *KafkaSink) Publish(ctx context.Context, event ScanEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("marshal scan event")
		return
	}
	msg := kafka.Message{Key: []byte(event.CycleID), Value: payload}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().Err(err).Str("cycle_id", event.CycleID).Msg("scan event publish failed")
	}
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
