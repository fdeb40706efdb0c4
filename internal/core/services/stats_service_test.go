package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
)

type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context, habitID int64, day time.Time) (*domain.HabitStats, error) {
	args := m.Called(ctx, habitID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HabitStats), args.Error(1)
}

func (m *MockStatsCache) Set(ctx context.Context, stats *domain.HabitStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsCache) Invalidate(ctx context.Context, habitID int64) error {
	args := m.Called(ctx, habitID)
	return args.Error(0)
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// statsFixture stores an everyday habit and a Mondays-only habit, both
// created on Friday 2024-03-01.
func statsFixture(t *testing.T) (*MockRepo, *domain.Habit, *domain.Habit) {
	t.Helper()
	created := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

	daily, err := domain.NewHabit(1, domain.HabitParams{Name: "Walk"}, created)
	require.NoError(t, err)
	daily.SetCompletion(utcDay(2024, 3, 4), domain.CompletionDone, created)
	daily.SetCompletion(utcDay(2024, 3, 5), domain.CompletionDone, created)

	mondays, err := domain.NewHabit(2, domain.HabitParams{
		Name:          "Weekly review",
		FrequencyType: domain.FreqSomeWeekdays,
		SelectedDays:  []string{"Mon"},
	}, created)
	require.NoError(t, err)
	mondays.Order = 1
	mondays.SetCompletion(utcDay(2024, 3, 4), domain.CompletionDone, created)

	repo := NewMockRepo()
	require.NoError(t, repo.Create(context.Background(), daily))
	require.NoError(t, repo.Create(context.Background(), mondays))
	return repo, daily, mondays
}

func TestStatsService_Calendar(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := statsFixture(t)
	svc := services.NewStatsService(repo, nil, nil, zerolog.Nop())

	t.Run("Day", func(t *testing.T) {
		stat, err := svc.Day(ctx, time.Date(2024, 3, 4, 21, 30, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, domain.DayStat{Date: "2024-03-04", Scheduled: 2, Completed: 2, Ratio: 1}, *stat)

		stat, err = svc.Day(ctx, utcDay(2024, 3, 6))
		require.NoError(t, err)
		assert.Equal(t, 1, stat.Scheduled)
		assert.Equal(t, 0, stat.Completed)
		assert.Zero(t, stat.Ratio)
	})

	t.Run("Week starts on Sunday", func(t *testing.T) {
		view, err := svc.Week(ctx, utcDay(2024, 3, 6))
		require.NoError(t, err)

		assert.Equal(t, "2024-03-03", view.StartDate)
		assert.Equal(t, "2024-03-09", view.EndDate)
		require.Len(t, view.Days, 7)
		assert.Equal(t, 8, view.Total.Scheduled)
		assert.Equal(t, 3, view.Total.Completed)
		assert.InDelta(t, 3.0/8.0, view.Total.Rate, 1e-9)
	})

	t.Run("Month", func(t *testing.T) {
		view, err := svc.Month(ctx, 2024, time.February)
		require.NoError(t, err)

		assert.Len(t, view.Days, 29)
		assert.Equal(t, 29+4, view.Total.Scheduled)
		assert.Equal(t, 0, view.Total.Completed)
	})

	t.Run("Fail: Month out of range", func(t *testing.T) {
		_, err := svc.Month(ctx, 2024, time.Month(13))
		assert.ErrorIs(t, err, services.ErrInvalidMonth)
	})

	t.Run("Year", func(t *testing.T) {
		view, err := svc.Year(ctx, 2024)
		require.NoError(t, err)

		require.Len(t, view.Months, 12)
		assert.Equal(t, time.March, view.Months[2].Month)
		assert.Equal(t, 3, view.Months[2].Completed)
		assert.Equal(t, 366+53, view.Total.Scheduled)
		assert.Equal(t, 3, view.Total.Completed)
	})

	t.Run("Fail: Repository error", func(t *testing.T) {
		broken := NewMockRepo()
		broken.simulateError = errors.New("db down")
		svc := services.NewStatsService(broken, nil, nil, zerolog.Nop())

		_, err := svc.Week(ctx, utcDay(2024, 3, 6))
		assert.EqualError(t, err, "db down")
	})
}

func TestStatsService_Agenda(t *testing.T) {
	ctx := context.Background()
	repo, daily, mondays := statsFixture(t)
	svc := services.NewStatsService(repo, nil, nil, zerolog.Nop())

	t.Run("Monday lists both habits in order", func(t *testing.T) {
		agenda, err := svc.Agenda(ctx, utcDay(2024, 3, 4))
		require.NoError(t, err)

		assert.Equal(t, "2024-03-04", agenda.Date)
		assert.Equal(t, 2, agenda.Scheduled)
		require.Len(t, agenda.Items, 2)
		assert.Equal(t, daily.ID, agenda.Items[0].HabitID)
		assert.Equal(t, mondays.ID, agenda.Items[1].HabitID)
		assert.Equal(t, domain.CompletionDone, agenda.Items[1].Completion)
		assert.Equal(t, 1, agenda.Items[0].CurrentStreak)
		assert.Equal(t, 1, agenda.Items[1].CurrentStreak)
	})

	t.Run("Tuesday lists only the daily habit", func(t *testing.T) {
		agenda, err := svc.Agenda(ctx, utcDay(2024, 3, 5))
		require.NoError(t, err)

		require.Len(t, agenda.Items, 1)
		assert.Equal(t, "Walk", agenda.Items[0].Name)
		assert.Equal(t, 2, agenda.Items[0].CurrentStreak)
	})

	t.Run("Nothing due still returns an empty list", func(t *testing.T) {
		empty := services.NewStatsService(NewMockRepo(), nil, nil, zerolog.Nop())
		agenda, err := empty.Agenda(ctx, utcDay(2024, 3, 5))
		require.NoError(t, err)
		assert.NotNil(t, agenda.Items)
		assert.Empty(t, agenda.Items)
		assert.Zero(t, agenda.Ratio)
	})
}

func TestStatsService_HabitStats(t *testing.T) {
	ctx := context.Background()
	asOf := utcDay(2024, 3, 5)

	t.Run("Success: Served from cache", func(t *testing.T) {
		repo, daily, _ := statsFixture(t)
		cache := new(MockStatsCache)
		cached := &domain.HabitStats{HabitID: daily.ID, AsOf: "2024-03-05", CurrentStreak: 12, HabitUpdatedAt: daily.UpdatedAt}
		cache.On("Get", ctx, daily.ID, asOf).Return(cached, nil)

		svc := services.NewStatsService(repo, cache, nil, zerolog.Nop())
		stats, err := svc.HabitStats(ctx, daily.ID, asOf)

		require.NoError(t, err)
		assert.Equal(t, cached, stats)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	})

	t.Run("Success: Snapshot of an older revision is recomputed", func(t *testing.T) {
		repo, daily, _ := statsFixture(t)
		cache := new(MockStatsCache)
		stale := &domain.HabitStats{HabitID: daily.ID, AsOf: "2024-03-05", CurrentStreak: 12, HabitUpdatedAt: daily.UpdatedAt.Add(-time.Minute)}
		cache.On("Get", ctx, daily.ID, asOf).Return(stale, nil)
		cache.On("Set", ctx, mock.MatchedBy(func(s *domain.HabitStats) bool {
			return s.HabitUpdatedAt.Equal(daily.UpdatedAt)
		})).Return(nil)

		svc := services.NewStatsService(repo, cache, nil, zerolog.Nop())
		stats, err := svc.HabitStats(ctx, daily.ID, asOf)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.CurrentStreak)
		cache.AssertExpectations(t)
	})

	t.Run("Success: Miss computes and writes back", func(t *testing.T) {
		repo, daily, _ := statsFixture(t)
		cache := new(MockStatsCache)
		cache.On("Get", ctx, daily.ID, asOf).Return(nil, domain.ErrStatsCacheMiss)
		cache.On("Set", ctx, mock.MatchedBy(func(s *domain.HabitStats) bool {
			return s.HabitID == daily.ID && s.AsOf == "2024-03-05"
		})).Return(nil)

		svc := services.NewStatsService(repo, cache, nil, zerolog.Nop())
		stats, err := svc.HabitStats(ctx, daily.ID, asOf)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.CurrentStreak)
		assert.Equal(t, 2, stats.HighestStreak)
		assert.Equal(t, 2, stats.TotalCompletions)
		assert.Equal(t, 5, stats.ScheduledDays)
		assert.Equal(t, 2, stats.CompletedDays)
		assert.InDelta(t, 0.4, stats.CompletionRate, 1e-9)
		cache.AssertExpectations(t)
	})

	t.Run("Success: Broken cache falls back to the repository", func(t *testing.T) {
		repo, daily, _ := statsFixture(t)
		cache := new(MockStatsCache)
		cache.On("Get", ctx, daily.ID, asOf).Return(nil, errors.New("redis: connection refused"))
		cache.On("Set", ctx, mock.Anything).Return(errors.New("redis: connection refused"))

		svc := services.NewStatsService(repo, cache, nil, zerolog.Nop())
		stats, err := svc.HabitStats(ctx, daily.ID, asOf)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.CurrentStreak)
	})

	t.Run("Fail: Unknown habit", func(t *testing.T) {
		svc := services.NewStatsService(NewMockRepo(), nil, nil, zerolog.Nop())
		_, err := svc.HabitStats(ctx, 404, asOf)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Fail: Deleted habit ignores its cached snapshot", func(t *testing.T) {
		cache := new(MockStatsCache)
		cache.On("Get", ctx, int64(404), asOf).Return(&domain.HabitStats{HabitID: 404, CurrentStreak: 3}, nil)

		svc := services.NewStatsService(NewMockRepo(), cache, nil, zerolog.Nop())
		_, err := svc.HabitStats(ctx, 404, asOf)

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStatsService_Location(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata not available")
	}

	repo, _, _ := statsFixture(t)
	svc := services.NewStatsService(repo, nil, rome, zerolog.Nop())
	assert.Equal(t, rome, svc.Location())

	// The calendar date is kept even when the instant is another day in Rome.
	stat, err := svc.Day(context.Background(), time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", stat.Date)
}
