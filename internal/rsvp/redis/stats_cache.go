package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"ms-rsvp/internal/models"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	statsKey           = "rsvp:stats"
	statsGenerationKey = "rsvp:stats:gen"
	DefaultStatsTTL    = 30 * time.Second
)

// setIfGeneration writes the stats only while the generation counter still
// holds the value the caller read before computing them.
var setIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then
	current = "0"
end
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// StatsCache stores the aggregate counters. Every invalidation bumps a
// generation counter so a fill computed before a write cannot land after it.
type StatsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{Client: client, TTL: ttl}
}

// Get returns nil without an error on a cache miss.
func (c *StatsCache) Get(ctx context.Context) (*models.Stats, error) {
	raw, err := c.Client.Get(ctx, statsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stats models.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decode cached stats: %w", err)
	}
	return &stats, nil
}

// Generation returns the current invalidation counter, 0 before the first write.
func (c *StatsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.Client.Get(ctx, statsGenerationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetIfCurrent stores stats computed at generation gen. It reports false and
// leaves the cache untouched when an invalidation happened in between.
func (c *StatsCache) SetIfCurrent(ctx context.Context, gen int64, stats models.Stats) (bool, error) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return false, err
	}
	n, err := setIfGeneration.Run(ctx, c.Client,
		[]string{statsGenerationKey, statsKey},
		strconv.FormatInt(gen, 10), raw, c.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("fill stats cache: %w", err)
	}
	return n == 1, nil
}

// Invalidate bumps the generation and drops the cached counters atomically.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, statsGenerationKey)
		pipe.Del(ctx, statsKey)
		return nil
	})
	return err
}
