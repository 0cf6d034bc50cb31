package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ms-rsvp/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

const TableName = "rsvp_responses"

type DB struct {
	Bun   *bun.DB
	Clock *Clock
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB, Clock: NewClock(nil)}
}

// ---------------- RSVP RESPONSES ----------------

// CreateResponse → assign id and created_at, then insert exactly one row
func (d *DB) CreateResponse(ctx context.Context, r models.RSVPResponse) (*models.RSVPResponse, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = d.clock().Next()

	_, err := d.Bun.NewInsert().Model(&r).Exec(ctx)
	if err != nil {
		return nil, classify(fmt.Errorf("insert %s: %w", TableName, err))
	}
	return &r, nil
}

// ListResponses → every response, newest first
func (d *DB) ListResponses(ctx context.Context) ([]models.RSVPResponse, error) {
	var responses []models.RSVPResponse
	err := d.Bun.NewSelect().
		Model(&responses).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, classify(fmt.Errorf("select %s: %w", TableName, err))
	}
	if responses == nil {
		responses = []models.RSVPResponse{}
	}
	return responses, nil
}

// GetResponse → one response by id
func (d *DB) GetResponse(ctx context.Context, id string) (*models.RSVPResponse, error) {
	r := new(models.RSVPResponse)
	err := d.Bun.NewSelect().Model(r).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, classify(fmt.Errorf("select %s %s: %w", TableName, id, err))
	}
	return r, nil
}

// CountResponses → number of stored responses
func (d *DB) CountResponses(ctx context.Context) (int, error) {
	n, err := d.Bun.NewSelect().Model((*models.RSVPResponse)(nil)).Count(ctx)
	if err != nil {
		return 0, classify(fmt.Errorf("count %s: %w", TableName, err))
	}
	return n, nil
}

// ---------------- DIAGNOSTICS ----------------

func (d *DB) Ping(ctx context.Context) error {
	if err := d.Bun.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("ping: %w", err))
	}
	return nil
}

// TableExists reports whether the responses table is present.
func (d *DB) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	var err error

	switch d.Bun.Dialect().Name() {
	case dialect.PG:
		err = d.Bun.NewRaw(
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?)",
			TableName,
		).Scan(ctx, &exists)
	default:
		var n int
		err = d.Bun.NewRaw(
			"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
			TableName,
		).Scan(ctx, &n)
		exists = n > 0
	}
	if err != nil {
		return false, classify(fmt.Errorf("probe %s: %w", TableName, err))
	}
	return exists, nil
}

func (d *DB) clock() *Clock {
	if d.Clock == nil {
		d.Clock = NewClock(nil)
	}
	return d.Clock
}
