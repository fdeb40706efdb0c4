package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Presets returns the stored presets, seeding the defaults on first use.
func (s *CategoryService) Presets(ctx context.Context) ([]domain.CategoryPreset, error) {
	presets, err := s.repo.Load(ctx)
	if err == nil {
		return presets, nil
	}
	if !errors.Is(err, domain.ErrCategoriesNotFound) {
		return nil, err
	}

	defaults := domain.DefaultCategoryPresets()
	if err := s.repo.Save(ctx, defaults); err != nil {
		return nil, fmt.Errorf("category service: failed to seed defaults: %w", err)
	}
	return defaults, nil
}

func (s *CategoryService) Replace(ctx context.Context, presets []domain.CategoryPreset) ([]domain.CategoryPreset, error) {
	clean, err := domain.NormalizePresets(presets)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, clean); err != nil {
		return nil, err
	}
	return clean, nil
}

// Reset drops the stored presets and returns the defaults.
func (s *CategoryService) Reset(ctx context.Context) ([]domain.CategoryPreset, error) {
	if err := s.repo.Clear(ctx); err != nil {
		return nil, err
	}
	return s.Presets(ctx)
}
