package cli

import (
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/engine"
)

type DueCmd struct {
	Date string `help:"Date to evaluate (YYYY-MM-DD or 'today')." default:"today"`
}

type dueOutput struct {
	domain.DayStat
	Habits []domain.AgendaItem `json:"habits"`
}

func (c *DueCmd) Run(ctx *Context) error {
	d, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}

	out := dueOutput{
		DayStat: engine.DayRatio(ctx.Habits, d),
		Habits:  []domain.AgendaItem{},
	}
	for _, h := range ctx.Habits {
		if !engine.IsDue(h, d) {
			continue
		}
		out.Habits = append(out.Habits, domain.AgendaItem{
			HabitID:       h.ID,
			Name:          h.Name,
			Color:         h.Color,
			Completion:    h.CompletionOn(d),
			CurrentStreak: engine.CurrentStreak(h, d),
		})
	}
	return ctx.print(out)
}

type StreakCmd struct {
	ID   int64  `help:"Habit id." required:""`
	AsOf string `help:"Last day counted (YYYY-MM-DD or 'today')." default:"today" name:"as-of"`
}

func (c *StreakCmd) Run(ctx *Context) error {
	h, err := ctx.find(c.ID)
	if err != nil {
		return err
	}
	d, err := ctx.parseDate(c.AsOf)
	if err != nil {
		return err
	}

	return ctx.print(map[string]any{
		"habit_id":       h.ID,
		"as_of":          domain.DateKey(d),
		"current_streak": engine.CurrentStreak(h, d),
		"highest_streak": engine.HighestStreak(h, d),
	})
}

type StatsCmd struct {
	ID   int64  `help:"Habit id." required:""`
	AsOf string `help:"Last day counted (YYYY-MM-DD or 'today')." default:"today" name:"as-of"`
}

func (c *StatsCmd) Run(ctx *Context) error {
	h, err := ctx.find(c.ID)
	if err != nil {
		return err
	}
	d, err := ctx.parseDate(c.AsOf)
	if err != nil {
		return err
	}

	return ctx.print(engine.Lifetime(h, d))
}

type MonthCmd struct {
	Year  int `help:"Year, defaults to the current one."`
	Month int `help:"Month 1-12, defaults to the current one."`
}

func (c *MonthCmd) Run(ctx *Context) error {
	now := ctx.Now().In(ctx.Loc)
	year, month := c.Year, time.Month(c.Month)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return fmt.Errorf("month must be between 1 and 12, got %d", c.Month)
	}

	return ctx.print(engine.Month(ctx.Habits, year, month, ctx.Loc))
}
