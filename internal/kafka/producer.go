package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// PublishRSVPSubmitted streams the new response event, keyed by response id
func (p *Producer) PublishRSVPSubmitted(ctx context.Context, event models.RSVPSubmittedEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.Publish(ctx, event.ID, msgBytes); err != nil {
		return fmt.Errorf("publish to %s: %w", p.Topic, err)
	}
	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("rsvp %s (%s)", event.ID, event.Attendance))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
