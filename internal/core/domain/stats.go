package domain

import "time"

// DayStat is the completion of all habits on one calendar day.
type DayStat struct {
	Date      string  `json:"date"`
	Scheduled int     `json:"scheduled"`
	Completed int     `json:"completed"`
	Ratio     float64 `json:"ratio"`
}

type Aggregate struct {
	Scheduled int     `json:"scheduled"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"completion_rate"`
}

// Add folds a day into the aggregate and refreshes the rate.
func (a *Aggregate) Add(scheduled, completed int) {
	a.Scheduled += scheduled
	a.Completed += completed
	a.Rate = Ratio(a.Completed, a.Scheduled)
}

// Ratio is completed/scheduled, or 0 when nothing was scheduled.
func Ratio(completed, scheduled int) float64 {
	if scheduled == 0 {
		return 0
	}
	return float64(completed) / float64(scheduled)
}

type HabitStats struct {
	HabitID          int64   `json:"habit_id"`
	AsOf             string  `json:"as_of"`
	CurrentStreak    int     `json:"current_streak"`
	HighestStreak    int     `json:"highest_streak"`
	TotalCompletions int     `json:"total_completions"`
	ScheduledDays    int     `json:"scheduled_days"`
	CompletedDays    int     `json:"completed_days"`
	CompletionRate   float64 `json:"completion_rate"`
	// HabitUpdatedAt is the revision of the habit the stats were computed from.
	HabitUpdatedAt time.Time `json:"habit_updated_at"`
}

type WeekView struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Days      []DayStat `json:"days"`
	Total     Aggregate `json:"total"`
}

type MonthView struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []DayStat  `json:"days"`
	Total Aggregate  `json:"total"`
}

type MonthSummary struct {
	Month time.Month `json:"month"`
	Aggregate
}

type YearView struct {
	Year   int            `json:"year"`
	Months []MonthSummary `json:"months"`
	Total  Aggregate      `json:"total"`
}

// AgendaItem is one habit due on a given day.
type AgendaItem struct {
	HabitID       int64      `json:"habit_id"`
	Name          string     `json:"name"`
	Color         string     `json:"color"`
	Completion    Completion `json:"completed"`
	CurrentStreak int        `json:"current_streak"`
}

type Agenda struct {
	DayStat
	Items []AgendaItem `json:"items"`
}
