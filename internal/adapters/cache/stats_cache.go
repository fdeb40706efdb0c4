package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

var (
	_ domain.StatsCache = (*RedisStatsCache)(nil)
	_ domain.StatsCache = (*MemoryStatsCache)(nil)
)

const (
	statsKeyPrefix = "habit_stats"
	StatsTTL       = 24 * time.Hour
	scanBatch      = 100
)

func statsKey(habitID int64, day string) string {
	return fmt.Sprintf("%s:%d:%s", statsKeyPrefix, habitID, day)
}

// RedisStatsCache stores one snapshot per habit and reference day.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: StatsTTL}
}

func (c *RedisStatsCache) Get(ctx context.Context, habitID int64, day time.Time) (*domain.HabitStats, error) {
	val, err := c.client.Get(ctx, statsKey(habitID, domain.DateKey(day))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrStatsCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("stats cache: read failed: %w", err)
	}

	var stats domain.HabitStats
	if err := json.Unmarshal(val, &stats); err != nil {
		return nil, fmt.Errorf("stats cache: corrupted entry: %w", err)
	}
	return &stats, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *domain.HabitStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache: encode failed: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(stats.HabitID, stats.AsOf), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("stats cache: write failed: %w", err)
	}
	return nil
}

// Invalidate drops every snapshot of the habit, whatever its day.
func (c *RedisStatsCache) Invalidate(ctx context.Context, habitID int64) error {
	pattern := fmt.Sprintf("%s:%d:*", statsKeyPrefix, habitID)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("stats cache: scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("stats cache: delete failed: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// MemoryStatsCache is the StatsCache used when redis is not configured.
// Entries do not expire; a snapshot is only ever read for its own day.
type MemoryStatsCache struct {
	mu      sync.RWMutex
	entries map[int64]map[string]domain.HabitStats
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{entries: make(map[int64]map[string]domain.HabitStats)}
}

func (c *MemoryStatsCache) Get(ctx context.Context, habitID int64, day time.Time) (*domain.HabitStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats, ok := c.entries[habitID][domain.DateKey(day)]
	if !ok {
		return nil, domain.ErrStatsCacheMiss
	}
	return &stats, nil
}

func (c *MemoryStatsCache) Set(ctx context.Context, stats *domain.HabitStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	days, ok := c.entries[stats.HabitID]
	if !ok {
		days = make(map[string]domain.HabitStats)
		c.entries[stats.HabitID] = days
	}
	days[stats.AsOf] = *stats
	return nil
}

func (c *MemoryStatsCache) Invalidate(ctx context.Context, habitID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, habitID)
	return nil
}
