package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisIntegration runs the guard against a real Redis container
func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	g := NewSubmissionGuard(client, time.Minute)

	token, ok, err := g.Claim(ctx, "integration")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = g.Claim(ctx, "integration")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Complete(ctx, "integration", token, "rsvp-1"))
	id, err := g.Lookup(ctx, "integration")
	require.NoError(t, err)
	assert.Equal(t, "rsvp-1", id)

	cache := NewStatsCache(client, time.Minute)
	stored, err := cache.SetIfCurrent(ctx, 0, statsFixture)
	require.NoError(t, err)
	assert.True(t, stored)
	got, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, statsFixture, *got)
}
