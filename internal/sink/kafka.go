package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/well-data-etl/internal/config"
	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// KafkaPublisher streams the output records to a sink topic, keyed by API
// number, for downstreams that want the dataset as messages instead of a
// file. Feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
type KafkaPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a producer for the configured sink topic.
func NewKafkaPublisher(cfg *config.Config, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish serializes and writes the whole result in one WriteMessages call.
func (p *KafkaPublisher) Publish(ctx context.Context, result domain.JoinResult) error {
	if len(result.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(result.Records))
	for i := range result.Records {
		msg, err := serializeToMessage(result.Records[i], result.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish well records: %w", err)
	}
	p.logger.Info("records published", "topic", p.writer.Topic, "count", len(msgs))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an OutputRecord into a Kafka message.
func serializeToMessage(rec domain.OutputRecord, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize well record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "operator", Value: []byte(rec.Operator)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
