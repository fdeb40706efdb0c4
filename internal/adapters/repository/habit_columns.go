package repository

import (
	"encoding/json"
	"fmt"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

// jsonColumns holds the habit fields stored as JSON documents in both SQL
// backends.
type jsonColumns struct {
	Categories []byte `db:"categories"`
	Completed  []byte `db:"completed"`
}

func encodeJSONColumns(h *domain.Habit) (jsonColumns, error) {
	cats := h.Categories
	if cats == nil {
		cats = []domain.Category{}
	}
	catsJSON, err := json.Marshal(cats)
	if err != nil {
		return jsonColumns{}, fmt.Errorf("failed to marshal categories: %w", err)
	}

	completedJSON, err := json.Marshal(h.Completed)
	if err != nil {
		return jsonColumns{}, fmt.Errorf("failed to marshal completions: %w", err)
	}

	return jsonColumns{Categories: catsJSON, Completed: completedJSON}, nil
}

func (c jsonColumns) decodeInto(h *domain.Habit) error {
	if len(c.Categories) > 0 {
		if err := json.Unmarshal(c.Categories, &h.Categories); err != nil {
			return fmt.Errorf("failed to unmarshal categories: %w", err)
		}
		if len(h.Categories) == 0 {
			h.Categories = nil
		}
	}

	h.Completed = domain.CompletionLog{}
	if len(c.Completed) > 0 {
		if err := json.Unmarshal(c.Completed, &h.Completed); err != nil {
			return fmt.Errorf("failed to unmarshal completions: %w", err)
		}
	}
	return nil
}
