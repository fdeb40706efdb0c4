package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

var (
	_ domain.HabitRepository    = (*InMemoryHabitRepository)(nil)
	_ domain.CategoryRepository = (*InMemoryCategoryRepository)(nil)
)

type InMemoryHabitRepository struct {
	store map[int64]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[int64]*domain.Habit),
	}
}

// copyHabit detaches the stored habit from callers that mutate what they get.
func copyHabit(h *domain.Habit) *domain.Habit {
	c := *h
	c.Categories = append([]domain.Category(nil), h.Categories...)
	c.SelectedDays = append([]string(nil), h.SelectedDays...)
	c.Completed = make(domain.CompletionLog, len(h.Completed))
	for k, v := range h.Completed {
		c.Completed[k] = v
	}
	return &c
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[habit.ID]; exists {
		return domain.ErrHabitConflict
	}
	r.store[habit.ID] = copyHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id int64) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return copyHabit(habit), nil
}

func (r *InMemoryHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := make([]*domain.Habit, 0, len(r.store))
	for _, h := range r.store {
		habits = append(habits, copyHabit(h))
	}

	sort.Slice(habits, func(i, j int) bool {
		if habits[i].Order != habits[j].Order {
			return habits[i].Order < habits[j].Order
		}
		return habits[i].ID < habits[j].ID
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[habit.ID]; !ok {
		return domain.ErrHabitNotFound
	}

	r.store[habit.ID] = copyHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return domain.ErrHabitNotFound
	}

	delete(r.store, id)
	return nil
}

type InMemoryCategoryRepository struct {
	presets []domain.CategoryPreset
	saved   bool

	mu sync.RWMutex
}

func NewInMemoryCategoryRepository() *InMemoryCategoryRepository {
	return &InMemoryCategoryRepository{}
}

func copyPresets(in []domain.CategoryPreset) []domain.CategoryPreset {
	out := make([]domain.CategoryPreset, len(in))
	for i, p := range in {
		out[i] = domain.CategoryPreset{Main: p.Main, Subs: append([]string(nil), p.Subs...)}
	}
	return out
}

func (r *InMemoryCategoryRepository) Load(ctx context.Context) ([]domain.CategoryPreset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.saved {
		return nil, domain.ErrCategoriesNotFound
	}
	return copyPresets(r.presets), nil
}

func (r *InMemoryCategoryRepository) Save(ctx context.Context, presets []domain.CategoryPreset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presets = copyPresets(presets)
	r.saved = true
	return nil
}

func (r *InMemoryCategoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presets = nil
	r.saved = false
	return nil
}
