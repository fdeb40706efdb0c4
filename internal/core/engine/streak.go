package engine

import (
	"time"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

// MaxStreakLookback bounds how many days CurrentStreak examines.
const MaxStreakLookback = 365

// CurrentStreak counts consecutive due and completed days walking back from
// asOf. Days that are not due are skipped; the first due day that is not
// completed ends the walk, as does the habit's creation day.
func CurrentStreak(h *domain.Habit, asOf time.Time) int {
	d := domain.Midnight(asOf)
	created := creationDay(h, asOf.Location())

	streak := 0
	for i := 0; i < MaxStreakLookback && !d.Before(created); i++ {
		if IsDue(h, d) {
			if !h.CompletionOn(d).IsDone() {
				break
			}
			streak++
		}
		d = d.AddDate(0, 0, -1)
	}
	return streak
}

// HighestStreak is the longest run of due and completed days between the
// creation day and asOf, both inclusive.
func HighestStreak(h *domain.Habit, asOf time.Time) int {
	return scanLifetime(h, asOf).highest
}

// TotalCompletions counts every day marked done, due or not.
func TotalCompletions(h *domain.Habit) int {
	n := 0
	for _, c := range h.Completed {
		if c.IsDone() {
			n++
		}
	}
	return n
}

type lifetimeScan struct {
	agg     domain.Aggregate
	highest int
}

func scanLifetime(h *domain.Habit, asOf time.Time) lifetimeScan {
	var s lifetimeScan
	end := domain.Midnight(asOf)

	run := 0
	for d := creationDay(h, asOf.Location()); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsDue(h, d) {
			continue
		}
		if h.CompletionOn(d).IsDone() {
			run++
			s.highest = max(s.highest, run)
			s.agg.Add(1, 1)
		} else {
			run = 0
			s.agg.Add(1, 0)
		}
	}
	return s
}

// Lifetime summarizes h from its creation day to asOf.
func Lifetime(h *domain.Habit, asOf time.Time) domain.HabitStats {
	scan := scanLifetime(h, asOf)
	return domain.HabitStats{
		HabitID:          h.ID,
		AsOf:             domain.DateKey(asOf),
		CurrentStreak:    CurrentStreak(h, asOf),
		HighestStreak:    scan.highest,
		TotalCompletions: TotalCompletions(h),
		ScheduledDays:    scan.agg.Scheduled,
		CompletedDays:    scan.agg.Completed,
		CompletionRate:   scan.agg.Rate,
		HabitUpdatedAt:   h.UpdatedAt,
	}
}
