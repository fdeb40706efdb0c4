package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

func fixtureHabits(t *testing.T) (*domain.Habit, *domain.Habit) {
	t.Helper()
	created := time.Date(2024, time.February, 3, 9, 15, 0, 123_000_000, time.UTC)

	gym, err := domain.NewHabit(1_000, domain.HabitParams{
		Name:          "Gym",
		Description:   "Upper body",
		Color:         "#FF8800",
		Categories:    []domain.Category{{Main: "Health", Sub: "Exercise"}},
		FrequencyType: domain.FreqSomeWeekdays,
		SelectedDays:  []string{"Mon", "Thu"},
	}, created)
	require.NoError(t, err)
	gym.Order = 1
	gym.SetCompletion(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), domain.CompletionDone, created)
	gym.SetCompletion(time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC), domain.CompletionMissed, created)

	// Legacy record: creation instant only lives in the id.
	legacy := &domain.Habit{
		ID:            time.Date(2023, time.May, 1, 7, 0, 0, 0, time.UTC).UnixMilli(),
		Name:          "Floss",
		FrequencyType: domain.FreqRepeats,
		RepeatDays:    2,
		UpdatedAt:     created,
	}
	require.NoError(t, legacy.Normalize())

	return gym, legacy
}

// runHabitRepositoryContract checks the behaviour every HabitRepository
// backend must share. repo must start empty.
func runHabitRepositoryContract(t *testing.T, repo domain.HabitRepository) {
	ctx := context.Background()
	gym, legacy := fixtureHabits(t)

	t.Run("Create", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, gym))
		require.NoError(t, repo.Create(ctx, legacy))
	})

	t.Run("Create duplicate id", func(t *testing.T) {
		err := repo.Create(ctx, gym)
		assert.ErrorIs(t, err, domain.ErrHabitConflict)
	})

	t.Run("Get By ID round-trips every field", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, gym.ID)
		require.NoError(t, err)

		assert.Equal(t, gym.Name, fetched.Name)
		assert.Equal(t, gym.Description, fetched.Description)
		assert.Equal(t, gym.Color, fetched.Color)
		assert.Equal(t, gym.Type, fetched.Type)
		assert.Equal(t, gym.Categories, fetched.Categories)
		assert.Equal(t, gym.FrequencyType, fetched.FrequencyType)
		assert.Equal(t, gym.SelectedDays, fetched.SelectedDays)
		assert.Equal(t, gym.TimesPerPeriod, fetched.TimesPerPeriod)
		assert.Equal(t, gym.PeriodUnit, fetched.PeriodUnit)
		assert.Equal(t, gym.RepeatDays, fetched.RepeatDays)
		assert.Equal(t, gym.Completed, fetched.Completed)
		assert.Equal(t, gym.Order, fetched.Order)
		assert.True(t, gym.CreatedAt.Equal(fetched.CreatedAt), "created_at: want %v, got %v", gym.CreatedAt, fetched.CreatedAt)
		assert.True(t, gym.UpdatedAt.Equal(fetched.UpdatedAt), "updated_at: want %v, got %v", gym.UpdatedAt, fetched.UpdatedAt)
	})

	t.Run("Legacy record keeps a zero created_at", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, legacy.ID)
		require.NoError(t, err)

		assert.True(t, fetched.CreatedAt.IsZero())
		assert.Nil(t, fetched.SelectedDays)
		assert.Nil(t, fetched.Categories)
		assert.NotNil(t, fetched.Completed)
		assert.Equal(t, "2023-05-01", domain.DateKey(fetched.CreationTime()))
	})

	t.Run("List orders by position", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)

		assert.Equal(t, legacy.ID, list[0].ID)
		assert.Equal(t, gym.ID, list[1].ID)
	})

	t.Run("Returned habits are detached", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, gym.ID)
		require.NoError(t, err)
		fetched.Name = "Mutated"
		fetched.Completed["2030-01-01"] = domain.CompletionDone

		again, err := repo.GetByID(ctx, gym.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gym", again.Name)
		assert.NotContains(t, again.Completed, "2030-01-01")
	})

	t.Run("Update replaces the completion log", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, gym.ID)
		require.NoError(t, err)

		now := time.Date(2024, time.February, 9, 18, 0, 0, 0, time.UTC)
		fetched.SetCompletion(time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC), domain.CompletionUnmarked, now)
		fetched.SetCompletion(time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), domain.CompletionDone, now)
		fetched.ChangePosition(0, now)
		require.NoError(t, repo.Update(ctx, fetched))

		updated, err := repo.GetByID(ctx, gym.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CompletionLog{
			"2024-02-05": domain.CompletionDone,
			"2024-02-09": domain.CompletionDone,
		}, updated.Completed)
		assert.True(t, now.Equal(updated.UpdatedAt))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, gym.ID, list[0].ID, "equal order falls back to id")
	})

	t.Run("Update/Delete Non-Existent ID", func(t *testing.T) {
		ghost := &domain.Habit{ID: 42, Name: "Ghost", Color: domain.DefaultColor, Type: domain.HabitTypeBuild,
			FrequencyType: domain.FreqEveryday, TimesPerPeriod: 1, RepeatDays: 1, PeriodUnit: domain.PeriodWeek}

		assert.ErrorIs(t, repo.Update(ctx, ghost), domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, 42), domain.ErrHabitNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, gym.ID))

		_, err := repo.GetByID(ctx, gym.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
