package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

// ErrReaderClosed is returned by Start when the reader can deliver no more
// messages.
var ErrReaderClosed = errors.New("kafka reader closed")

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader MessageReader
	topic  string
	logger *logger.Logger
	// Backoff paces reads after a failed ReadMessage. It is reset by every
	// successful read.
	Backoff backoff.BackOff
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(reader, topic, log)
}

func NewConsumerWithReader(reader MessageReader, topic string, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	return &Consumer{reader: reader, topic: topic, logger: log, Backoff: defaultBackoff()}
}

// Start consumes RSVP events until ctx is cancelled. Undecodable messages are
// logged and skipped. Read errors are retried with backoff, except io.EOF from
// a closed reader, which ends the loop with ErrReaderClosed.
func (c *Consumer) Start(ctx context.Context, handler func(models.RSVPSubmittedEvent)) error {
	c.logger.LogKafka("CONSUME", c.topic, "consumer started")
	c.Backoff.Reset()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.LogKafka("CONSUME", c.topic, "consumer stopped")
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Error("KAFKA", fmt.Sprintf("Reader for %s closed", c.topic))
				return fmt.Errorf("%w: %w", ErrReaderClosed, err)
			}

			wait := c.Backoff.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("giving up reading %s: %w", c.topic, err)
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message, retrying in %s: %v", wait, err))
			select {
			case <-ctx.Done():
				c.logger.LogKafka("CONSUME", c.topic, "consumer stopped")
				return nil
			case <-time.After(wait):
			}
			continue
		}
		c.Backoff.Reset()

		var event models.RSVPSubmittedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}

		handler(event)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
