package engine

import (
	"slices"
	"time"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

const day = 24 * time.Hour

// IsDue reports whether h expects a check-in on date. Unknown frequency
// types are always due.
func IsDue(h *domain.Habit, date time.Time) bool {
	switch h.FrequencyType {
	case domain.FreqEveryday, domain.FreqAnytime:
		return true
	case domain.FreqSomeWeekdays:
		return slices.Contains(h.SelectedDays, domain.WeekdayName(date.Weekday()))
	case domain.FreqTimesInPeriod:
		// The per-period count is a goal, not a daily gate.
		return true
	case domain.FreqRepeats:
		if h.RepeatDays <= 1 {
			return true
		}
		return DaysBetween(creationDay(h, date.Location()), date)%int64(h.RepeatDays) == 0
	default:
		return true
	}
}

// DaysBetween is the whole number of days separating the midnights of a and
// b, floor(|b-a| / 24h). Across a DST change this is elapsed time, not
// calendar distance.
func DaysBetween(a, b time.Time) int64 {
	diff := domain.Midnight(b).Sub(domain.Midnight(a))
	if diff < 0 {
		diff = -diff
	}
	return int64(diff / day)
}

func creationDay(h *domain.Habit, loc *time.Location) time.Time {
	return domain.Midnight(h.CreationTime().In(loc))
}
