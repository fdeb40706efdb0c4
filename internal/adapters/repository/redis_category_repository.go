package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

var _ domain.CategoryRepository = (*RedisCategoryRepository)(nil)

const categoryPresetsKey = "habit_categories"

// RedisCategoryRepository stores the preset list as one JSON document.
type RedisCategoryRepository struct {
	client *redis.Client
}

func NewRedisCategoryRepository(client *redis.Client) *RedisCategoryRepository {
	return &RedisCategoryRepository{client: client}
}

func (r *RedisCategoryRepository) Load(ctx context.Context) ([]domain.CategoryPreset, error) {
	val, err := r.client.Get(ctx, categoryPresetsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCategoriesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	var presets []domain.CategoryPreset
	if err := json.Unmarshal(val, &presets); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return presets, nil
}

func (r *RedisCategoryRepository) Save(ctx context.Context, presets []domain.CategoryPreset) error {
	data, err := json.Marshal(presets)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	if err := r.client.Set(ctx, categoryPresetsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write categories: %w", err)
	}
	return nil
}

func (r *RedisCategoryRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, categoryPresetsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return nil
}
