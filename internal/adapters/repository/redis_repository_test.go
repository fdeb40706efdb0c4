package repository

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	_ = godotenv.Load("../../../.env")

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_HOST", "localhost") + ":" + envOr("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       2,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	require.NoError(t, rdb.FlushDB(context.Background()).Err(), "Failed to flush test DB")
	return rdb
}

func TestCachedHabitRepository_Integration(t *testing.T) {
	rdb := setupTestRedis(t)
	defer rdb.Close()

	t.Run("Contract", func(t *testing.T) {
		runHabitRepositoryContract(t, NewCachedHabitRepository(NewInMemoryHabitRepository(), rdb, zerolog.Nop()))
	})

	t.Run("List is served from redis until a write", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, rdb.FlushDB(ctx).Err())

		inner := NewInMemoryHabitRepository()
		repo := NewCachedHabitRepository(inner, rdb, zerolog.Nop())
		gym, legacy := fixtureHabits(t)
		require.NoError(t, repo.Create(ctx, gym))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		// Bypassing the decorator leaves the cached list stale.
		require.NoError(t, inner.Create(ctx, legacy))
		list, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		gym.Name = "Gym v2"
		require.NoError(t, repo.Update(ctx, gym))
		list, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Corrupted cache entry falls back to storage", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, rdb.Set(ctx, habitListKey, "{not json", 0).Err())

		repo := NewCachedHabitRepository(NewInMemoryHabitRepository(), rdb, zerolog.Nop())
		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestRedisCategoryRepository_Integration(t *testing.T) {
	rdb := setupTestRedis(t)
	defer rdb.Close()

	ctx := context.Background()
	repo := NewRedisCategoryRepository(rdb)

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrCategoriesNotFound)

	require.NoError(t, repo.Save(ctx, domain.DefaultCategoryPresets()))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategoryPresets(), loaded)

	require.NoError(t, repo.Clear(ctx))
	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrCategoriesNotFound)
}
