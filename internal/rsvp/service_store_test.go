package rsvp_test

import (
	"context"
	"database/sql"
	"fmt"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/rsvp"
	storedb "ms-rsvp/internal/rsvp/db"
	rsvpredis "ms-rsvp/internal/rsvp/redis"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupStore(t *testing.T) *storedb.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	store := storedb.New(bunDB)
	require.NoError(t, store.CreateSchema(context.Background()))
	return store
}

func TestAshaRaoScenario(t *testing.T) {
	store := setupStore(t)
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.Submit(ctx, models.RSVPRequest{Name: "Ravi", Attendance: models.AttendanceNo, Guests: models.Guests(3)}, "")
	require.NoError(t, err)

	before, err := svc.Stats(ctx)
	require.NoError(t, err)

	var req models.RSVPRequest
	require.NoError(t, jsonUnmarshal(`{"name":"Asha Rao","attendance":"yes","guests":"2","message":"So happy for you!"}`, &req))

	created, err := svc.Submit(ctx, req, "")
	require.NoError(t, err)
	assert.Equal(t, 2, created.Guests)
	assert.Equal(t, models.AttendanceYes, created.Attendance)

	after, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Attending+1, after.Attending)
	assert.Equal(t, before.TotalGuests+2, after.TotalGuests)
	assert.Equal(t, before.NotAttending, after.NotAttending)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "So happy for you!", list[0].Message)
}

func TestMissingAttendance_NoRecordStored(t *testing.T) {
	store := setupStore(t)
	svc := newService(store)
	ctx := context.Background()

	var req models.RSVPRequest
	require.NoError(t, jsonUnmarshal(`{"name":"Asha Rao","guests":"2"}`, &req))

	_, err := svc.Submit(ctx, req, "")
	assert.ErrorIs(t, err, rsvp.ErrMissingFields)

	n, err := store.CountResponses(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListAfterNSubmissions(t *testing.T) {
	store := setupStore(t)
	svc := newService(store)
	ctx := context.Background()

	const n = 12
	ids := map[string]bool{}
	for i := 0; i < n; i++ {
		attendance := models.AttendanceYes
		if i%3 == 0 {
			attendance = models.AttendanceNo
		}
		r, err := svc.Submit(ctx, models.RSVPRequest{
			Name:       fmt.Sprintf("Guest %d", i),
			Attendance: attendance,
			Guests:     models.Guests(i%4 + 1),
		}, "")
		require.NoError(t, err)
		assert.False(t, ids[r.ID], "ids are never reused")
		ids[r.ID] = true
	}

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, n)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].CreatedAt.After(first[i].CreatedAt))
	}

	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := rsvp.Aggregate(first)
	assert.Equal(t, n, stats.Total)
	assert.Equal(t, stats.Total, stats.Attending+stats.NotAttending)
}

func TestSubmit_MissingSchemaIsConfigurationError(t *testing.T) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	defer bunDB.Close()

	svc := newService(storedb.New(bunDB))
	_, err = svc.Submit(context.Background(), ashaRequest(), "")

	assert.ErrorIs(t, err, rsvp.ErrSchemaMissing)
	assert.Equal(t, rsvp.ClassConfiguration, rsvp.Classify(err))
}

// pausingStore holds the first listing open until release is closed.
type pausingStore struct {
	*storedb.DB
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingStore) ListResponses(ctx context.Context) ([]models.RSVPResponse, error) {
	list, err := p.DB.ListResponses(ctx)
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return list, err
}

func TestStats_SubmitDuringAggregationIsNotHiddenByCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &pausingStore{
		DB:      setupStore(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newService(store)
	svc.Cache = rsvpredis.NewStatsCache(rdb, time.Minute)
	ctx := context.Background()

	type result struct {
		stats models.Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := svc.Stats(ctx)
		done <- result{st, err}
	}()

	<-store.entered
	_, err := svc.Submit(ctx, ashaRequest(), "")
	require.NoError(t, err)
	close(store.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, 0, first.stats.Total)

	after, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Attending)
	assert.Equal(t, 2, after.TotalGuests)
}
