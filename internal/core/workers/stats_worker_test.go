package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

type fakeRepo struct {
	domain.HabitRepository
	habits  map[int64]*domain.Habit
	listErr error
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.Habit, error) {
	h, ok := r.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return h, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*domain.Habit, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Habit, 0, len(r.habits))
	for _, h := range r.habits {
		out = append(out, h)
	}
	return out, nil
}

type fakeCache struct {
	mu          sync.Mutex
	stored      map[int64]domain.HabitStats
	invalidated []int64
	setErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: map[int64]domain.HabitStats{}}
}

func (c *fakeCache) Get(ctx context.Context, habitID int64, day time.Time) (*domain.HabitStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stored[habitID]
	if !ok || s.AsOf != domain.DateKey(day) {
		return nil, domain.ErrStatsCacheMiss
	}
	return &s, nil
}

func (c *fakeCache) Set(ctx context.Context, stats *domain.HabitStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.stored[stats.HabitID] = *stats
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, habitID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stored, habitID)
	c.invalidated = append(c.invalidated, habitID)
	return nil
}

func (c *fakeCache) get(id int64) (domain.HabitStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stored[id]
	return s, ok
}

// dailyHabit was created three days before now and completed on the last two.
func dailyHabit(t *testing.T, id int64, now time.Time) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(id, domain.HabitParams{Name: "Stretch"}, now.AddDate(0, 0, -3))
	require.NoError(t, err)
	h.SetCompletion(now, domain.CompletionDone, now)
	h.SetCompletion(now.AddDate(0, 0, -1), domain.CompletionDone, now)
	return h
}

func TestStatsWorker_ProcessJob(t *testing.T) {
	now := time.Date(2024, time.May, 10, 15, 0, 0, 0, time.UTC)

	t.Run("Success: Stores a fresh snapshot", func(t *testing.T) {
		repo := &fakeRepo{habits: map[int64]*domain.Habit{1: dailyHabit(t, 1, now)}}
		cache := newFakeCache()
		w := NewStatsWorker(repo, cache, time.UTC, zerolog.Nop())
		w.now = func() time.Time { return now }

		w.processJob(context.Background(), StatsJob{HabitID: 1})

		stats, ok := cache.get(1)
		require.True(t, ok)
		assert.Equal(t, "2024-05-10", stats.AsOf)
		assert.Equal(t, 2, stats.CurrentStreak)
		assert.Equal(t, 2, stats.HighestStreak)
		assert.Equal(t, 4, stats.ScheduledDays)
		assert.Equal(t, []int64{1}, cache.invalidated)
	})

	t.Run("Deleted habit only drops its snapshots", func(t *testing.T) {
		cache := newFakeCache()
		cache.stored[9] = domain.HabitStats{HabitID: 9}
		w := NewStatsWorker(&fakeRepo{habits: map[int64]*domain.Habit{}}, cache, nil, zerolog.Nop())

		w.processJob(context.Background(), StatsJob{HabitID: 9})

		_, ok := cache.get(9)
		assert.False(t, ok)
	})

	t.Run("Cache write failure is not fatal", func(t *testing.T) {
		repo := &fakeRepo{habits: map[int64]*domain.Habit{1: dailyHabit(t, 1, now)}}
		cache := newFakeCache()
		cache.setErr = errors.New("redis down")
		w := NewStatsWorker(repo, cache, time.UTC, zerolog.Nop())

		assert.NotPanics(t, func() {
			w.processJob(context.Background(), StatsJob{HabitID: 1})
		})
	})
}

func TestStatsWorker_Today(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	w := NewStatsWorker(&fakeRepo{}, newFakeCache(), tokyo, zerolog.Nop())
	w.now = func() time.Time { return time.Date(2024, time.May, 10, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2024, time.May, 11, 0, 0, 0, 0, tokyo), w.today())
}

func TestStatsWorker_Enqueue(t *testing.T) {
	w := NewStatsWorker(&fakeRepo{}, newFakeCache(), time.UTC, zerolog.Nop())

	for i := 0; i < queueSize+10; i++ {
		w.Enqueue(int64(i))
	}

	assert.Len(t, w.jobs, queueSize)
}

func TestStatsWorker_RefreshAll(t *testing.T) {
	now := time.Now().UTC()

	t.Run("Success: Queues every habit", func(t *testing.T) {
		repo := &fakeRepo{habits: map[int64]*domain.Habit{
			1: dailyHabit(t, 1, now),
			2: dailyHabit(t, 2, now),
		}}
		w := NewStatsWorker(repo, newFakeCache(), time.UTC, zerolog.Nop())

		n, err := w.RefreshAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, w.jobs, 2)
	})

	t.Run("Fail: Repository error", func(t *testing.T) {
		w := NewStatsWorker(&fakeRepo{listErr: errors.New("db down")}, newFakeCache(), time.UTC, zerolog.Nop())

		_, err := w.RefreshAll(context.Background())
		assert.EqualError(t, err, "db down")
	})
}

func TestStatsWorker_Start(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{habits: map[int64]*domain.Habit{5: dailyHabit(t, 5, now)}}
	cache := newFakeCache()
	w := NewStatsWorker(repo, cache, time.UTC, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue(5)

	assert.Eventually(t, func() bool {
		_, ok := cache.get(5)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStatsWorker_Schedule(t *testing.T) {
	t.Run("Fail: Invalid spec", func(t *testing.T) {
		w := NewStatsWorker(&fakeRepo{}, newFakeCache(), time.UTC, zerolog.Nop())
		err := w.Schedule(context.Background(), "not a cron spec")
		assert.Error(t, err)
	})

	t.Run("Success: Default spec parses", func(t *testing.T) {
		w := NewStatsWorker(&fakeRepo{}, newFakeCache(), time.UTC, zerolog.Nop())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		assert.NoError(t, w.Schedule(ctx, DefaultRefreshSpec))
	})

	t.Run("Success: Scheduled run refreshes the cache", func(t *testing.T) {
		now := time.Now().UTC()
		repo := &fakeRepo{habits: map[int64]*domain.Habit{3: dailyHabit(t, 3, now)}}
		cache := newFakeCache()
		w := NewStatsWorker(repo, cache, time.UTC, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w.Start(ctx)
		require.NoError(t, w.Schedule(ctx, "@every 1s"))

		assert.Eventually(t, func() bool {
			_, ok := cache.get(3)
			return ok
		}, 3*time.Second, 50*time.Millisecond)
	})
}
