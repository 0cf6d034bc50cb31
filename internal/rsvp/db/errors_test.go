package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pq undefined table", &pq.Error{Code: "42P01", Message: `relation "rsvp_responses" does not exist`}, ErrTableMissing},
		{"sqlite no such table", errors.New("SQL logic error: no such table: rsvp_responses (1)"), ErrTableMissing},
		{"pq connection failure", &pq.Error{Code: "08006"}, ErrUnreachable},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, ErrUnreachable},
		{"dial error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, ErrUnreachable},
		{"deadline", fmt.Errorf("insert: %w", context.DeadlineExceeded), ErrUnreachable},
		{"refused text", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}
}

func TestClassify_Unknown(t *testing.T) {
	orig := &pq.Error{Code: "23514", Message: "check constraint"}
	err := classify(orig)

	assert.NotErrorIs(t, err, ErrTableMissing)
	assert.NotErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, orig, err)
	assert.Nil(t, classify(nil))
}
