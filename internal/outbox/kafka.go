package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"marketfund/internal/domain"
)

// KafkaPublisher writes each event to "<prefix>.<event type>", keyed by the
// event key so events for one campaign or buyer stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
}

func NewKafkaPublisher(brokers []string, prefix string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		prefix: prefix,
	}
}

func (p *KafkaPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	return p.writer.WriteMessages(ctx, Message(p.Topic(event.Type), event))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message builds the broker record for event.
func Message(topic string, event domain.Event) kafka.Message {
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(event.Key),
		Value: event.Payload,
		Time:  ts,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
}

// LogPublisher stands in for the broker when none is configured.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.Logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("key", event.Key).
		RawJSON("payload", event.Payload).
		Msg("outbox event")
	return nil
}
