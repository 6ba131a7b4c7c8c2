package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelpilot-ai/platform/pkg/common/config"
	"github.com/modelpilot-ai/platform/pkg/common/logger"
	"github.com/modelpilot-ai/platform/pkg/common/models"
	"github.com/segmentio/kafka-go"
)

// KafkaMirror publishes every pipeline event to a kafka topic so other
// instances (and offline consumers) see the same ordered stream. Writes are
// fire-and-forget from the pipeline's perspective.
type KafkaMirror struct {
	writer *kafka.Writer
}

func NewKafkaMirror(cfg *config.Config) *KafkaMirror {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.PipelineTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaMirror{writer: writer}
}

func (m *KafkaMirror) Publish(event models.PipelineEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to marshal pipeline event")
		return
	}

	message := kafka.Message{
		// Keying by project id keeps one project's events in one partition,
		// preserving order for consumers.
		Key:   []byte(event.ProjectID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.writer.WriteMessages(ctx, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Error("Failed to mirror event to kafka")
	}
}

func (m *KafkaMirror) Close() error {
	return m.writer.Close()
}

// Bridge consumes the mirrored topic and re-injects events into a local
// broadcaster, letting an API instance that did not run the pipeline serve
// live subscribers for it.
type Bridge struct {
	reader      *kafka.Reader
	broadcaster *Broadcaster
}

func NewBridge(cfg *config.Config, broadcaster *Broadcaster) *Bridge {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.PipelineTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Bridge{reader: reader, broadcaster: broadcaster}
}

// Run blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		message, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch mirrored event")
			continue
		}

		var event models.PipelineEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Log.WithError(err).Error("Failed to unmarshal mirrored event")
			_ = b.reader.CommitMessages(ctx, message)
			continue
		}

		b.broadcaster.Deliver(event)
		if err := b.reader.CommitMessages(ctx, message); err != nil {
			logger.Log.WithError(err).Error("Failed to commit mirrored event")
		}
	}
}

func (b *Bridge) Close() error {
	return b.reader.Close()
}
