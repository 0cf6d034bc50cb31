package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	msgs chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *fakeReader) Close() error { return nil }

func TestProducer_PublishRSVPSubmitted(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topic: "wedding.rsvp.submitted", Logger: logger.NewWriterLogger(nil)}

	event := models.RSVPSubmittedEvent{
		ID: "rsvp-1", Name: "Asha Rao", Attendance: models.AttendanceYes, Guests: 2,
		CreatedAt: time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishRSVPSubmitted(context.Background(), event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "rsvp-1", string(w.msgs[0].Key))

	var got models.RSVPSubmittedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, event, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Producer{Writer: w, Topic: "t", Logger: logger.NewWriterLogger(nil)}

	err := p.PublishRSVPSubmitted(context.Background(), models.RSVPSubmittedEvent{ID: "x"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestConsumer_DeliversAndSkipsGarbage(t *testing.T) {
	r := &fakeReader{msgs: make(chan kafka.Message, 3)}
	c := NewConsumerWithReader(r, "wedding.rsvp.submitted", nil)

	good, _ := json.Marshal(models.RSVPSubmittedEvent{ID: "a", Attendance: models.AttendanceNo, Guests: 1})
	r.msgs <- kafka.Message{Value: []byte("{garbage")}
	r.msgs <- kafka.Message{Value: good}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan models.RSVPSubmittedEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(e models.RSVPSubmittedEvent) { got <- e })
	}()

	select {
	case e := <-got:
		assert.Equal(t, "a", e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

// failingReader returns errs in order, then io.EOF.
type failingReader struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (r *failingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) == 0 {
		return kafka.Message{}, io.EOF
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return kafka.Message{}, err
}

func (r *failingReader) Close() error { return nil }

func TestConsumer_BacksOffThenStopsOnEOF(t *testing.T) {
	r := &failingReader{errs: []error{errors.New("broker down"), errors.New("broker down")}}
	c := NewConsumerWithReader(r, "wedding.rsvp.submitted", nil)
	c.Backoff = backoff.NewConstantBackOff(time.Millisecond)

	err := c.Start(context.Background(), func(models.RSVPSubmittedEvent) {
		t.Fatal("no event expected")
	})

	assert.ErrorIs(t, err, ErrReaderClosed)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, r.calls)
}

func TestConsumer_CancelDuringBackoff(t *testing.T) {
	r := &failingReader{errs: []error{errors.New("broker down")}}
	c := NewConsumerWithReader(r, "wedding.rsvp.submitted", nil)
	c.Backoff = backoff.NewConstantBackOff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Start(ctx, func(models.RSVPSubmittedEvent) {})
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, r.calls)
}

func TestEnsureTopicsExist_NoBrokers(t *testing.T) {
	err := EnsureTopicsExist(nil, []string{"t"}, logger.NewWriterLogger(nil))
	assert.Error(t, err)
}
