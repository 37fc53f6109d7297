// Package events publishes final live transcripts to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"live-transcription-service/internal/observability/metrics"
)

// Publisher publishes transcript events to a Kafka topic. When disabled it
// runs in log-only mode so the live path behaves identically without brokers.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// New creates a new Kafka transcript publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, transcript publisher in log-only mode")
		p := &Publisher{enabled: false, metrics: m}
		if cfg != nil {
			p.topic = cfg.Topic
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka transcript publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   cfg.Topic,
		enabled: true,
		metrics: m,
	}
}

// PublishTranscript publishes a final transcript event keyed by session id.
func (p *Publisher) PublishTranscript(ctx context.Context, sessionID string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("Failed to marshal transcript event")
		return err
	}

	log.Debug().
		Str("topic", p.topic).
		Str("sessionId", sessionID).
		RawJSON("payload", payload).
		Msg("Publishing transcript event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(p.topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(sessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("live.transcript.final")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("sessionId", sessionID).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(p.topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(p.topic, nil, time.Since(start).Seconds())
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Kafka writer")
		return err
	}
	return nil
}
