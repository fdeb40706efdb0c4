package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/engine"
)

const queueSize = 100

// DefaultRefreshSpec runs the nightly refresh just after midnight, once
// yesterday's streaks are final.
const DefaultRefreshSpec = "5 0 * * *"

type StatsJob struct {
	HabitID int64
}

// StatsWorker recomputes lifetime stats in the background and stores the
// snapshots in the stats cache.
type StatsWorker struct {
	habitRepo domain.HabitRepository
	cache     domain.StatsCache
	loc       *time.Location
	logger    zerolog.Logger
	jobs      chan StatsJob
	now       func() time.Time
	parser    cron.Parser
}

func NewStatsWorker(habitRepo domain.HabitRepository, cache domain.StatsCache, loc *time.Location, logger zerolog.Logger) *StatsWorker {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsWorker{
		habitRepo: habitRepo,
		cache:     cache,
		loc:       loc,
		logger:    logger.With().Str("component", "stats_worker").Logger(),
		jobs:      make(chan StatsJob, queueSize),
		now:       time.Now,
		parser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	go func() {
		w.logger.Info().Msg("stats worker started")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.logger.Info().Msg("stats worker shutting down")
				return
			}
		}
	}()
}

func (w *StatsWorker) Enqueue(habitID int64) {
	select {
	case w.jobs <- StatsJob{HabitID: habitID}:
	default:
		w.logger.Warn().Int64("habit_id", habitID).Msg("queue full, dropping job")
	}
}

// RefreshAll queues every stored habit and returns how many were queued.
func (w *StatsWorker) RefreshAll(ctx context.Context) (int, error) {
	habits, err := w.habitRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, h := range habits {
		w.Enqueue(h.ID)
	}
	return len(habits), nil
}

// Schedule runs RefreshAll on spec, a five-field cron expression or
// descriptor evaluated in the worker's location, until ctx is done.
func (w *StatsWorker) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithParser(w.parser), cron.WithLocation(w.loc))

	_, err := c.AddFunc(spec, func() {
		n, err := w.RefreshAll(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("scheduled refresh failed")
			return
		}
		w.logger.Info().Int("habits", n).Msg("scheduled refresh queued")
	})
	if err != nil {
		return fmt.Errorf("stats worker: invalid schedule %q: %w", spec, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (w *StatsWorker) today() time.Time {
	return domain.Midnight(w.now().In(w.loc))
}

func (w *StatsWorker) processJob(ctx context.Context, job StatsJob) {
	log := w.logger.With().Int64("habit_id", job.HabitID).Logger()

	// Snapshots of earlier days are stale once the log or schedule changes.
	if err := w.cache.Invalidate(ctx, job.HabitID); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate stats")
	}

	habit, err := w.habitRepo.GetByID(ctx, job.HabitID)
	if errors.Is(err, domain.ErrHabitNotFound) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch habit")
		return
	}

	stats := engine.Lifetime(habit, w.today())
	if err := w.cache.Set(ctx, &stats); err != nil {
		log.Error().Err(err).Msg("failed to store stats")
		return
	}

	log.Debug().
		Int("current_streak", stats.CurrentStreak).
		Int("highest_streak", stats.HighestStreak).
		Msg("stats refreshed")
}
