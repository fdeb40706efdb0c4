package engine

import (
	"time"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

// DayRatio reports how many habits were due on date and how many of those
// were completed.
func DayRatio(habits []*domain.Habit, date time.Time) domain.DayStat {
	d := domain.Midnight(date)
	stat := domain.DayStat{Date: domain.DateKey(d)}

	for _, h := range habits {
		if !IsDue(h, d) {
			continue
		}
		stat.Scheduled++
		if h.CompletionOn(d).IsDone() {
			stat.Completed++
		}
	}
	stat.Ratio = domain.Ratio(stat.Completed, stat.Scheduled)
	return stat
}

// DayStats returns one DayStat per calendar day from from to to inclusive,
// plus their sum.
func DayStats(habits []*domain.Habit, from, to time.Time) ([]domain.DayStat, domain.Aggregate) {
	var total domain.Aggregate
	end := domain.Midnight(to)

	var days []domain.DayStat
	for d := domain.Midnight(from); !d.After(end); d = d.AddDate(0, 0, 1) {
		stat := DayRatio(habits, d)
		total.Add(stat.Scheduled, stat.Completed)
		days = append(days, stat)
	}
	return days, total
}

func RangeAggregate(habits []*domain.Habit, from, to time.Time) domain.Aggregate {
	_, total := DayStats(habits, from, to)
	return total
}

// WeekStart returns the Sunday that opens t's week.
func WeekStart(t time.Time) time.Time {
	d := domain.Midnight(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func Week(habits []*domain.Habit, anchor time.Time) domain.WeekView {
	start := WeekStart(anchor)
	end := start.AddDate(0, 0, 6)
	days, total := DayStats(habits, start, end)

	return domain.WeekView{
		StartDate: domain.DateKey(start),
		EndDate:   domain.DateKey(end),
		Days:      days,
		Total:     total,
	}
}

func Month(habits []*domain.Habit, year int, month time.Month, loc *time.Location) domain.MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	days, total := DayStats(habits, first, last)

	return domain.MonthView{
		Year:  year,
		Month: month,
		Days:  days,
		Total: total,
	}
}

func Year(habits []*domain.Habit, year int, loc *time.Location) domain.YearView {
	view := domain.YearView{
		Year:   year,
		Months: make([]domain.MonthSummary, 0, 12),
	}

	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, loc)
		agg := RangeAggregate(habits, first, first.AddDate(0, 1, -1))
		view.Months = append(view.Months, domain.MonthSummary{Month: m, Aggregate: agg})
		view.Total.Add(agg.Scheduled, agg.Completed)
	}
	return view
}
