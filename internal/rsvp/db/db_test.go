package db_test

import (
	"context"
	"database/sql"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/rsvp/db"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func setupTestDB(t *testing.T) *db.DB {
	store := db.New(openTestDB(t))
	require.NoError(t, store.CreateSchema(context.Background()))
	return store
}

func TestCreateResponse_AssignsIDAndTimestamp(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	in := models.RSVPResponse{
		Name:       "Asha Rao",
		Attendance: models.AttendanceYes,
		Guests:     2,
		Message:    "So happy for you!",
		ID:         "client-supplied",
		CreatedAt:  time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	before := time.Now().UTC().Add(-time.Second)
	created, err := store.CreateResponse(ctx, in)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-supplied", created.ID)
	assert.True(t, created.CreatedAt.After(before), "created_at is set by the store")

	list, err := store.ListResponses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Asha Rao", list[0].Name)
	assert.Equal(t, models.AttendanceYes, list[0].Attendance)
	assert.Equal(t, 2, list[0].Guests)
	assert.Equal(t, "So happy for you!", list[0].Message)
	assert.Equal(t, "", list[0].Email)
	assert.True(t, created.CreatedAt.Equal(list[0].CreatedAt))
}

func TestGetResponse(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	created, err := store.CreateResponse(ctx, models.RSVPResponse{Name: "Ravi", Attendance: models.AttendanceNo, Guests: 1})
	require.NoError(t, err)

	got, err := store.GetResponse(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.Name)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	_, err = store.GetResponse(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListResponses_NewestFirst(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	// frozen clock: every write lands in the same microsecond
	frozen := time.Date(2026, 6, 20, 18, 0, 0, 0, time.UTC)
	store.Clock = db.NewClock(func() time.Time { return frozen })

	var ids []string
	for _, name := range []string{"first", "second", "third", "fourth"} {
		r, err := store.CreateResponse(ctx, models.RSVPResponse{Name: name, Attendance: models.AttendanceNo, Guests: 1})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	list, err := store.ListResponses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, []string{ids[3], ids[2], ids[1], ids[0]},
		[]string{list[0].ID, list[1].ID, list[2].ID, list[3].ID})
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}

	again, err := store.ListResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestListResponses_EmptyIsNotNil(t *testing.T) {
	store := setupTestDB(t)

	list, err := store.ListResponses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Len(t, list, 0)
}

func TestCreateResponse_UniqueIDs(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		r, err := store.CreateResponse(ctx, models.RSVPResponse{Name: "guest", Attendance: models.AttendanceYes, Guests: 1})
		require.NoError(t, err)
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}

	n, err := store.CountResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestMissingTable_IsClassified(t *testing.T) {
	store := db.New(openTestDB(t))
	ctx := context.Background()

	_, err := store.CreateResponse(ctx, models.RSVPResponse{Name: "x", Attendance: models.AttendanceYes, Guests: 1})
	assert.ErrorIs(t, err, db.ErrTableMissing)

	_, err = store.ListResponses(ctx)
	assert.ErrorIs(t, err, db.ErrTableMissing)

	exists, err := store.TableExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTableExists_AfterSchema(t *testing.T) {
	store := setupTestDB(t)

	exists, err := store.TableExists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.DropSchema(context.Background()))
	exists, err = store.TableExists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClosedDatabase_IsUnreachable(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.Bun.Close())

	err := store.Ping(context.Background())
	assert.ErrorIs(t, err, db.ErrUnreachable)

	_, err = store.CreateResponse(context.Background(), models.RSVPResponse{Name: "x", Attendance: models.AttendanceYes, Guests: 1})
	assert.ErrorIs(t, err, db.ErrUnreachable)
}
