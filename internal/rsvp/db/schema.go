package db

import (
	"context"
	"fmt"
	"ms-rsvp/internal/models"
)

// CreateSchema creates the responses table when it is missing. Postgres
// deployments use the SQL migrations instead; this covers sqlite and tests.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.RSVPResponse)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create table %s: %w", TableName, err)
	}

	_, err = d.Bun.NewCreateIndex().
		Model((*models.RSVPResponse)(nil)).
		Index("idx_rsvp_responses_created_at").
		IfNotExists().
		Column("created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create index on %s: %w", TableName, err)
	}
	return nil
}

func (d *DB) DropSchema(ctx context.Context) error {
	_, err := d.Bun.NewDropTable().
		Model((*models.RSVPResponse)(nil)).
		IfExists().
		Exec(ctx)
	return err
}
