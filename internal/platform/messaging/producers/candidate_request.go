package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/pagemend/pagemend/internal/config"
)

// CandidateReqMessageProducer publishes candidate generation requests for
// the worker fleet. Writes are async; generation latency must never block
// the request path.
type CandidateReqMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// Creates the producer and ensures the candidate topic exists
func NewCandidateReqMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*CandidateReqMessageProducer, error) {
	if cfg.CandidateTopic == "" {
		return nil, fmt.Errorf("kafka candidate topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for candidate producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.CandidateTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure candidate topic %s exists: %w", cfg.CandidateTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.CandidateTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write candidate requests asynchronously", "topic", cfg.CandidateTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Wrote candidate requests asynchronously", "topic", cfg.CandidateTopic, "count", len(messages))
			}
		},
	}

	return &CandidateReqMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.CandidateTopic,
	}, nil
}

func (p *CandidateReqMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate request message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish candidate request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish candidate request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published candidate request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *CandidateReqMessageProducer) Close() error {
	p.logger.Info("Closing candidate request Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close candidate kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
