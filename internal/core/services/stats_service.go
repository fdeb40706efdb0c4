package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/engine"
)

type StatsService struct {
	habitRepo domain.HabitRepository
	cache     domain.StatsCache
	loc       *time.Location
	logger    zerolog.Logger
}

// NewStatsService builds the calendar and stats reader. cache may be nil,
// in which case habit stats are always computed.
func NewStatsService(habitRepo domain.HabitRepository, cache domain.StatsCache, loc *time.Location, logger zerolog.Logger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		habitRepo: habitRepo,
		cache:     cache,
		loc:       loc,
		logger:    logger,
	}
}

func (s *StatsService) Location() *time.Location {
	return s.loc
}

// day reinterprets the calendar date of t in the dashboard location.
func (s *StatsService) day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *StatsService) Day(ctx context.Context, date time.Time) (*domain.DayStat, error) {
	habits, err := s.habitRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	stat := engine.DayRatio(habits, s.day(date))
	return &stat, nil
}

func (s *StatsService) Week(ctx context.Context, date time.Time) (*domain.WeekView, error) {
	habits, err := s.habitRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	view := engine.Week(habits, s.day(date))
	return &view, nil
}

func (s *StatsService) Month(ctx context.Context, year int, month time.Month) (*domain.MonthView, error) {
	if month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}

	habits, err := s.habitRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	view := engine.Month(habits, year, month, s.loc)
	return &view, nil
}

func (s *StatsService) Year(ctx context.Context, year int) (*domain.YearView, error) {
	habits, err := s.habitRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	view := engine.Year(habits, year, s.loc)
	return &view, nil
}

// Agenda lists the habits due on date in display order.
func (s *StatsService) Agenda(ctx context.Context, date time.Time) (*domain.Agenda, error) {
	habits, err := s.habitRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	d := s.day(date)
	agenda := &domain.Agenda{
		DayStat: engine.DayRatio(habits, d),
		Items:   make([]domain.AgendaItem, 0, len(habits)),
	}

	for _, h := range habits {
		if !engine.IsDue(h, d) {
			continue
		}
		agenda.Items = append(agenda.Items, domain.AgendaItem{
			HabitID:       h.ID,
			Name:          h.Name,
			Color:         h.Color,
			Completion:    h.CompletionOn(d),
			CurrentStreak: engine.CurrentStreak(h, d),
		})
	}

	return agenda, nil
}

// HabitStats returns lifetime stats of one habit as of asOf. A cached
// snapshot is served only when it was computed from the stored revision of
// the habit.
func (s *StatsService) HabitStats(ctx context.Context, id int64, asOf time.Time) (*domain.HabitStats, error) {
	d := s.day(asOf)

	habit, err := s.habitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id, d)
		switch {
		case err == nil && cached.HabitUpdatedAt.Equal(habit.UpdatedAt):
			return cached, nil
		case err == nil:
			s.logger.Debug().Int64("habit_id", id).Msg("stale stats snapshot dropped")
		case !errors.Is(err, domain.ErrStatsCacheMiss):
			s.logger.Warn().Err(err).Int64("habit_id", id).Msg("stats cache read failed")
		}
	}

	stats := engine.Lifetime(habit, d)

	if s.cache != nil {
		if err := s.cache.Set(ctx, &stats); err != nil {
			s.logger.Warn().Err(err).Int64("habit_id", id).Msg("stats cache write failed")
		}
	}

	return &stats, nil
}
