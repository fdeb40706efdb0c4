package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

// Context is handed to every command's Run.
type Context struct {
	Habits []*domain.Habit
	Loc    *time.Location
	Out    io.Writer
	Now    func() time.Time
}

// LoadExport reads a JSON array of habits as written by GET /habits.
func LoadExport(path string) ([]*domain.Habit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeExport(f)
}

func DecodeExport(r io.Reader) ([]*domain.Habit, error) {
	var habits []*domain.Habit
	if err := json.NewDecoder(r).Decode(&habits); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	for i, h := range habits {
		if h == nil {
			return nil, fmt.Errorf("record %d: %w", i, domain.ErrInvalidHabit)
		}
		if err := h.Normalize(); err != nil {
			return nil, fmt.Errorf("habit %d: %w", h.ID, err)
		}
	}
	return habits, nil
}

func (c *Context) find(id int64) (*domain.Habit, error) {
	for _, h := range c.Habits {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domain.ErrHabitNotFound, id)
}

// parseDate accepts yyyy-MM-dd or "today".
func (c *Context) parseDate(s string) (time.Time, error) {
	if s == "" || s == "today" {
		return domain.Midnight(c.Now().In(c.Loc)), nil
	}
	t, err := domain.ParseDateKey(s, c.Loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or 'today'", s)
	}
	return t, nil
}

func (c *Context) print(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
