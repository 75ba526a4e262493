package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"rewardscope/internal/model"
)

// Config selects the brokers and topic reports are published to.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes one message per account report, keyed by address.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafkago.RequireAll,
	}
	return newPublisher(writer, cfg.Topic, logger), nil
}

func newPublisher(writer messageWriter, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: writer, topic: topic, logger: logger, now: time.Now}
}

type envelope struct {
	Type  string            `json:"type"`
	RunID string            `json:"run_id"`
	Data  model.BatchResult `json:"data"`
	Time  time.Time         `json:"time"`
}

func (p *Publisher) PutReports(ctx context.Context, runID string, results []model.BatchResult) error {
	if len(results) == 0 {
		return nil
	}

	messages := make([]kafkago.Message, 0, len(results))
	for _, result := range results {
		value, err := json.Marshal(envelope{
			Type:  "reward_report",
			RunID: runID,
			Data:  result,
			Time:  p.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", result.Address, err)
		}
		messages = append(messages, kafkago.Message{Key: []byte(result.Address), Value: value})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("publish to kafka topic %s: %w", p.topic, err)
	}

	p.logger.Info("published reports", zap.String("topic", p.topic), zap.String("run_id", runID), zap.Int("count", len(messages)))
	return nil
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
