package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

func runStatsCacheContract(t *testing.T, c domain.StatsCache) {
	ctx := context.Background()
	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	t.Run("Miss", func(t *testing.T) {
		_, err := c.Get(ctx, 1, monday)
		assert.ErrorIs(t, err, domain.ErrStatsCacheMiss)
	})

	t.Run("Set and Get by day", func(t *testing.T) {
		stats := &domain.HabitStats{HabitID: 1, AsOf: "2024-03-04", CurrentStreak: 3, CompletionRate: 0.75}
		require.NoError(t, c.Set(ctx, stats))
		require.NoError(t, c.Set(ctx, &domain.HabitStats{HabitID: 2, AsOf: "2024-03-04", CurrentStreak: 9}))

		got, err := c.Get(ctx, 1, monday)
		require.NoError(t, err)
		assert.Equal(t, stats, got)

		_, err = c.Get(ctx, 1, tuesday)
		assert.ErrorIs(t, err, domain.ErrStatsCacheMiss)
	})

	t.Run("Invalidate drops only that habit", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, &domain.HabitStats{HabitID: 1, AsOf: "2024-03-05"}))
		require.NoError(t, c.Invalidate(ctx, 1))

		_, err := c.Get(ctx, 1, monday)
		assert.ErrorIs(t, err, domain.ErrStatsCacheMiss)
		_, err = c.Get(ctx, 1, tuesday)
		assert.ErrorIs(t, err, domain.ErrStatsCacheMiss)

		other, err := c.Get(ctx, 2, monday)
		require.NoError(t, err)
		assert.Equal(t, 9, other.CurrentStreak)
	})

	t.Run("Invalidate unknown habit", func(t *testing.T) {
		assert.NoError(t, c.Invalidate(ctx, 404))
	})
}

func TestMemoryStatsCache(t *testing.T) {
	runStatsCacheContract(t, NewMemoryStatsCache())
}

func TestRedisStatsCache_Integration(t *testing.T) {
	rdb := setupRedis(t)
	defer rdb.Close()

	c := NewRedisStatsCache(rdb)
	runStatsCacheContract(t, c)

	t.Run("Entries expire", func(t *testing.T) {
		require.NoError(t, c.Set(context.Background(), &domain.HabitStats{HabitID: 3, AsOf: "2024-03-04"}))

		ttl, err := rdb.TTL(context.Background(), statsKey(3, "2024-03-04")).Result()
		require.NoError(t, err)
		assert.InDelta(t, StatsTTL.Seconds(), ttl.Seconds(), 5)
	})
}

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "habit_stats:42:2024-03-04", statsKey(42, "2024-03-04"))
}
