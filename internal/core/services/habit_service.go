package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

// StatsRefresher warms the stats cache of a habit after it changed.
type StatsRefresher interface {
	Enqueue(habitID int64)
}

type HabitService struct {
	repo      domain.HabitRepository
	stats     domain.StatsCache
	refresher StatsRefresher
	logger    zerolog.Logger
	now       func() time.Time
	ids       idGenerator
}

// NewHabitService builds the habit writer. Cached stats of a habit are
// dropped before any write returns; stats and refresher may be nil.
func NewHabitService(repo domain.HabitRepository, stats domain.StatsCache, refresher StatsRefresher, logger zerolog.Logger) *HabitService {
	return &HabitService{
		repo:      repo,
		stats:     stats,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// idGenerator hands out millisecond timestamps, bumping by one when two
// habits are created within the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

const maxCreateAttempts = 3

type CreateHabitInput struct {
	Name           string
	Description    string
	Color          string
	Type           string
	Categories     []domain.Category
	FrequencyType  string
	SelectedDays   []string
	TimesPerPeriod int
	PeriodUnit     string
	RepeatDays     int
}

type UpdateHabitInput struct {
	ID             int64
	Name           string
	Description    string
	Color          string
	Type           string
	Categories     []domain.Category
	FrequencyType  string
	SelectedDays   []string
	TimesPerPeriod int
	PeriodUnit     string
	RepeatDays     int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func mergeInt(newVal, oldVal int) int {
	if newVal > 0 {
		return newVal
	}
	return oldVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	params := domain.HabitParams{
		Name:           input.Name,
		Description:    input.Description,
		Color:          input.Color,
		Type:           input.Type,
		Categories:     input.Categories,
		FrequencyType:  input.FrequencyType,
		SelectedDays:   input.SelectedDays,
		TimesPerPeriod: input.TimesPerPeriod,
		PeriodUnit:     input.PeriodUnit,
		RepeatDays:     input.RepeatDays,
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	order := 0
	for _, h := range existing {
		order = max(order, h.Order+1)
	}

	for attempt := 1; ; attempt++ {
		now := s.now()
		habit, err := domain.NewHabit(s.ids.next(now), params, now)
		if err != nil {
			return nil, err
		}
		habit.Order = order

		err = s.repo.Create(ctx, habit)
		if err == nil {
			return habit, nil
		}
		if !errors.Is(err, domain.ErrHabitConflict) || attempt == maxCreateAttempts {
			return nil, err
		}
	}
}

func (s *HabitService) Get(ctx context.Context, id int64) (*domain.Habit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *HabitService) List(ctx context.Context) ([]*domain.Habit, error) {
	return s.repo.List(ctx)
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	old := habit.Params()
	params := domain.HabitParams{
		Name:           mergeString(input.Name, old.Name),
		Description:    mergeString(input.Description, old.Description),
		Color:          mergeString(input.Color, old.Color),
		Type:           mergeString(input.Type, old.Type),
		Categories:     old.Categories,
		FrequencyType:  mergeString(input.FrequencyType, old.FrequencyType),
		SelectedDays:   old.SelectedDays,
		TimesPerPeriod: mergeInt(input.TimesPerPeriod, old.TimesPerPeriod),
		PeriodUnit:     mergeString(input.PeriodUnit, old.PeriodUnit),
		RepeatDays:     mergeInt(input.RepeatDays, old.RepeatDays),
	}
	if input.Categories != nil {
		params.Categories = input.Categories
	}
	if input.SelectedDays != nil {
		params.SelectedDays = input.SelectedDays
	}

	if err := habit.Update(params, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	// A schedule change moves due days, so the cached stats are stale.
	s.refresh(ctx, habit.ID)

	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.dropStats(ctx, id)
	return nil
}

func (s *HabitService) SetCompletion(ctx context.Context, id int64, day time.Time, state domain.Completion) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	habit.SetCompletion(day, state, s.now())

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.refresh(ctx, habit.ID)

	return habit, nil
}

func (s *HabitService) ToggleCompletion(ctx context.Context, id int64, day time.Time) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	habit.ToggleCompletion(day, s.now())

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.refresh(ctx, habit.ID)

	return habit, nil
}

// Reorder places the given habits first, in the given order. Habits not
// named keep their relative order after them.
func (s *HabitService) Reorder(ctx context.Context, ids []int64) ([]*domain.Habit, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}

	rank := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, domain.ErrHabitNotFound
		}
		if _, dup := rank[id]; dup {
			return nil, domain.ErrInvalidOrder
		}
		rank[id] = i
	}

	sorted := make([]*domain.Habit, len(habits))
	copy(sorted, habits)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iNamed := rank[sorted[i].ID]
		rj, jNamed := rank[sorted[j].ID]
		switch {
		case iNamed && jNamed:
			return ri < rj
		case iNamed != jNamed:
			return iNamed
		default:
			return false
		}
	})

	now := s.now()
	for pos, h := range sorted {
		if h.Order == pos {
			continue
		}
		h.ChangePosition(pos, now)
		if err := s.repo.Update(ctx, h); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}

// Import restores exported habits, replacing any habit with the same id.
// Records without an id get a fresh one.
func (s *HabitService) Import(ctx context.Context, habits []*domain.Habit) (int, error) {
	for i, h := range habits {
		if h == nil {
			return 0, fmt.Errorf("record %d: %w", i, domain.ErrInvalidHabit)
		}
		if err := h.Normalize(); err != nil {
			return 0, err
		}
	}

	imported := 0
	for _, h := range habits {
		now := s.now()
		if h.ID <= 0 {
			h.ID = s.ids.next(now)
			h.CreatedAt = now.UTC()
		}
		h.UpdatedAt = now.UTC()

		err := s.repo.Create(ctx, h)
		if errors.Is(err, domain.ErrHabitConflict) {
			err = s.repo.Update(ctx, h)
		}
		if err != nil {
			return imported, err
		}

		imported++
		s.refresh(ctx, h.ID)
	}

	return imported, nil
}

func (s *HabitService) dropStats(ctx context.Context, id int64) {
	if s.stats == nil {
		return
	}
	// Snapshots left behind are rejected on read by HabitUpdatedAt.
	if err := s.stats.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("habit_id", id).Msg("stats invalidation failed")
	}
}

func (s *HabitService) refresh(ctx context.Context, id int64) {
	s.dropStats(ctx, id)
	if s.refresher != nil {
		s.refresher.Enqueue(id)
	}
}
