package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound  = errors.New("habit not found")
	ErrHabitConflict  = errors.New("habit id already exists")
	ErrStatsCacheMiss = errors.New("stats cache miss")
)

type HabitRepository interface {
	// Create persists a new habit. A duplicate id is ErrHabitConflict.
	Create(ctx context.Context, habit *Habit) error

	GetByID(ctx context.Context, id int64) (*Habit, error)

	// List returns every habit ordered by Order, then ID.
	List(ctx context.Context) ([]*Habit, error)

	// Update replaces the stored habit, including its completion log.
	Update(ctx context.Context, habit *Habit) error

	Delete(ctx context.Context, id int64) error
}

type CategoryRepository interface {
	// Load returns ErrCategoriesNotFound when presets were never saved.
	Load(ctx context.Context) ([]CategoryPreset, error)
	Save(ctx context.Context, presets []CategoryPreset) error
	Clear(ctx context.Context) error
}

// StatsCache holds lifetime stats snapshots keyed by habit and reference day.
type StatsCache interface {
	Get(ctx context.Context, habitID int64, day time.Time) (*HabitStats, error)
	Set(ctx context.Context, stats *HabitStats) error
	Invalidate(ctx context.Context, habitID int64) error
}
