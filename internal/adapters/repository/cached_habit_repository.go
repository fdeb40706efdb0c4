package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const (
	habitListKey = "habits:all"
	habitListTTL = 30 * time.Minute
)

// CachedHabitRepository keeps the ordered habit list in redis. Every
// calendar view reads the whole list, so it is the only query worth caching.
type CachedHabitRepository struct {
	next   domain.HabitRepository
	cache  *redis.Client
	logger zerolog.Logger
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client, logger zerolog.Logger) *CachedHabitRepository {
	return &CachedHabitRepository{
		next:   next,
		cache:  cache,
		logger: logger.With().Str("component", "habit_cache").Logger(),
	}
}

func (r *CachedHabitRepository) invalidate(ctx context.Context) {
	if err := r.cache.Del(ctx, habitListKey).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to invalidate habit list")
	}
}

func (r *CachedHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	val, err := r.cache.Get(ctx, habitListKey).Bytes()
	if err == nil {
		var habits []*domain.Habit
		if err := json.Unmarshal(val, &habits); err == nil {
			return habits, nil
		}

		r.logger.Warn().Msg("corrupted habit list, cleaning up key")
		r.cache.Del(ctx, habitListKey)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn().Err(err).Msg("redis read error")
	}

	habits, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if setErr := r.cache.Set(ctx, habitListKey, data, habitListTTL).Err(); setErr != nil {
			r.logger.Warn().Err(setErr).Msg("redis set error")
		}
	}

	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id int64) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}
