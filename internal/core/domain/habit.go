package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrHabitNameEmpty   = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong = errors.New("habit name is too long (max 100 chars)")
	ErrHabitDescTooLong = errors.New("habit description is too long (max 500 chars)")
	ErrInvalidColor     = errors.New("invalid color format (must be #RRGGBB)")
	ErrInvalidHabitType = errors.New("invalid habit type (must be build or break)")
	ErrInvalidFrequency = errors.New("invalid frequency type")
	ErrInvalidWeekdays  = errors.New("invalid weekdays (must be Mon..Sun)")
	ErrInvalidPeriod    = errors.New("invalid period unit (must be day, week, month or year)")
	ErrInvalidCategory  = errors.New("category main name cannot be empty")
	ErrInvalidOrder     = errors.New("order must list each habit at most once")
	ErrInvalidHabit     = errors.New("habit record is empty")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

const (
	HabitTypeBuild = "build"
	HabitTypeBreak = "break"

	FreqEveryday      = "Everyday"
	FreqAnytime       = "Anytime"
	FreqSomeWeekdays  = "Some days of the week"
	FreqTimesInPeriod = "Numbers of times per period"
	FreqRepeats       = "Repeats"

	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"

	DefaultColor = "#4F46E5"
	MaxNameLen   = 100
	MaxDescLen   = 500
)

// weekdayNames is indexed by time.Weekday.
var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayName returns the locale-invariant short English name of d.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

type Category struct {
	Main string `json:"main"`
	Sub  string `json:"sub"`
}

type Habit struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	Color          string        `json:"color"`
	Type           string        `json:"type"`
	Categories     []Category    `json:"categories"`
	FrequencyType  string        `json:"frequency_type"`
	SelectedDays   []string      `json:"selected_days,omitempty"`
	TimesPerPeriod int           `json:"times_per_period"`
	PeriodUnit     string        `json:"period_unit"`
	RepeatDays     int           `json:"repeat_days"`
	Completed      CompletionLog `json:"completed"`
	Order          int           `json:"order"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// HabitParams carries the user-editable fields of a habit.
type HabitParams struct {
	Name           string
	Description    string
	Color          string
	Type           string
	Categories     []Category
	FrequencyType  string
	SelectedDays   []string
	TimesPerPeriod int
	PeriodUnit     string
	RepeatDays     int
}

// CreationTime is the instant schedules are anchored to. Records written
// before CreatedAt existed carry it only in the millisecond id.
func (h *Habit) CreationTime() time.Time {
	if !h.CreatedAt.IsZero() {
		return h.CreatedAt
	}
	return time.UnixMilli(h.ID).UTC()
}

func (h *Habit) CompletionOn(t time.Time) Completion {
	return h.Completed.On(t)
}

func NewHabit(id int64, p HabitParams, now time.Time) (*Habit, error) {
	clean, err := validateAndNormalize(p)
	if err != nil {
		return nil, err
	}

	h := &Habit{
		ID:        id,
		Completed: CompletionLog{},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	h.apply(clean)
	return h, nil
}

func (h *Habit) Update(p HabitParams, now time.Time) error {
	clean, err := validateAndNormalize(p)
	if err != nil {
		return err
	}
	h.apply(clean)
	h.UpdatedAt = now.UTC()
	return nil
}

func (h *Habit) apply(p HabitParams) {
	h.Name = p.Name
	h.Description = p.Description
	h.Color = p.Color
	h.Type = p.Type
	h.Categories = p.Categories
	h.FrequencyType = p.FrequencyType
	h.SelectedDays = p.SelectedDays
	h.TimesPerPeriod = p.TimesPerPeriod
	h.PeriodUnit = p.PeriodUnit
	h.RepeatDays = p.RepeatDays
}

// Params returns the editable fields, used to merge partial updates.
func (h *Habit) Params() HabitParams {
	return HabitParams{
		Name:           h.Name,
		Description:    h.Description,
		Color:          h.Color,
		Type:           h.Type,
		Categories:     h.Categories,
		FrequencyType:  h.FrequencyType,
		SelectedDays:   h.SelectedDays,
		TimesPerPeriod: h.TimesPerPeriod,
		PeriodUnit:     h.PeriodUnit,
		RepeatDays:     h.RepeatDays,
	}
}

// SetCompletion marks the day of t. Unmarked removes the entry.
func (h *Habit) SetCompletion(t time.Time, c Completion, now time.Time) {
	if h.Completed == nil {
		h.Completed = CompletionLog{}
	}
	key := DateKey(t)
	if c == CompletionUnmarked {
		delete(h.Completed, key)
	} else {
		h.Completed[key] = c
	}
	h.UpdatedAt = now.UTC()
}

func (h *Habit) ToggleCompletion(t time.Time, now time.Time) Completion {
	next := h.CompletionOn(t).Next()
	h.SetCompletion(t, next, now)
	return next
}

func (h *Habit) ChangePosition(newOrder int, now time.Time) {
	h.Order = newOrder
	h.UpdatedAt = now.UTC()
}

// Normalize validates a habit that did not come through NewHabit, such as an
// imported record, and clamps its numeric fields.
func (h *Habit) Normalize() error {
	clean, err := validateAndNormalize(h.Params())
	if err != nil {
		return err
	}
	h.apply(clean)
	h.Clamp()
	return nil
}

// Clamp forces numeric schedule fields into their valid range.
func (h *Habit) Clamp() {
	h.TimesPerPeriod = atLeastOne(h.TimesPerPeriod)
	h.RepeatDays = atLeastOne(h.RepeatDays)
	if h.PeriodUnit == "" {
		h.PeriodUnit = PeriodWeek
	}
	if h.Completed == nil {
		h.Completed = CompletionLog{}
	}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func validateAndNormalize(p HabitParams) (HabitParams, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, ErrHabitNameEmpty
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLen {
		return p, ErrHabitNameTooLong
	}

	p.Description = strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(p.Description) > MaxDescLen {
		return p, ErrHabitDescTooLong
	}

	if p.Color == "" {
		p.Color = DefaultColor
	} else if !colorRegex.MatchString(p.Color) {
		return p, ErrInvalidColor
	}

	switch p.Type {
	case "":
		p.Type = HabitTypeBuild
	case HabitTypeBuild, HabitTypeBreak:
	default:
		return p, ErrInvalidHabitType
	}

	switch p.FrequencyType {
	case "":
		p.FrequencyType = FreqEveryday
	case FreqEveryday, FreqAnytime, FreqSomeWeekdays, FreqTimesInPeriod, FreqRepeats:
	default:
		return p, ErrInvalidFrequency
	}

	days, err := normalizeWeekdays(p.SelectedDays)
	if err != nil {
		return p, err
	}
	p.SelectedDays = days

	switch p.PeriodUnit {
	case "":
		p.PeriodUnit = PeriodWeek
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
	default:
		return p, ErrInvalidPeriod
	}

	p.TimesPerPeriod = atLeastOne(p.TimesPerPeriod)
	p.RepeatDays = atLeastOne(p.RepeatDays)

	cats, err := normalizeCategories(p.Categories)
	if err != nil {
		return p, err
	}
	p.Categories = cats

	return p, nil
}

// normalizeWeekdays de-duplicates and sorts names into Mon..Sun order.
func normalizeWeekdays(days []string) ([]string, error) {
	if len(days) == 0 {
		return nil, nil
	}

	seen := make(map[time.Weekday]bool, len(days))
	for _, raw := range days {
		d, ok := parseWeekday(raw)
		if !ok {
			return nil, ErrInvalidWeekdays
		}
		seen[d] = true
	}

	out := make([]string, 0, len(seen))
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		if seen[d] {
			out = append(out, weekdayNames[d])
		}
	}
	return out, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	for i, name := range weekdayNames {
		if strings.EqualFold(s, name) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

func normalizeCategories(cats []Category) ([]Category, error) {
	if len(cats) == 0 {
		return nil, nil
	}

	seen := make(map[Category]bool, len(cats))
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		c.Main = strings.TrimSpace(c.Main)
		c.Sub = strings.TrimSpace(c.Sub)
		if c.Main == "" {
			return nil, ErrInvalidCategory
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
