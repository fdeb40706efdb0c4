package domain

import (
	"errors"
	"strings"
)

var (
	ErrCategoriesNotFound = errors.New("category presets not found")
	ErrDuplicateCategory  = errors.New("duplicate main category")
)

// CategoryPreset is a main category with the sub categories offered under it.
type CategoryPreset struct {
	Main string   `json:"main"`
	Subs []string `json:"subs"`
}

func DefaultCategoryPresets() []CategoryPreset {
	return []CategoryPreset{
		{Main: "Health", Subs: []string{"Exercise", "Sleep", "Nutrition", "Hydration"}},
		{Main: "Mind", Subs: []string{"Meditation", "Journaling", "Reading"}},
		{Main: "Work", Subs: []string{"Focus", "Learning", "Planning"}},
		{Main: "Social", Subs: []string{"Family", "Friends"}},
		{Main: "Finance", Subs: []string{"Saving", "Budgeting"}},
		{Main: "Home", Subs: []string{"Cleaning", "Cooking"}},
	}
}

// NormalizePresets trims names, drops empty and repeated subs and rejects
// empty or repeated mains. Order is preserved.
func NormalizePresets(presets []CategoryPreset) ([]CategoryPreset, error) {
	out := make([]CategoryPreset, 0, len(presets))
	mains := make(map[string]bool, len(presets))

	for _, p := range presets {
		main := strings.TrimSpace(p.Main)
		if main == "" {
			return nil, ErrInvalidCategory
		}
		key := strings.ToLower(main)
		if mains[key] {
			return nil, ErrDuplicateCategory
		}
		mains[key] = true

		subs := make([]string, 0, len(p.Subs))
		seen := make(map[string]bool, len(p.Subs))
		for _, s := range p.Subs {
			s = strings.TrimSpace(s)
			if s == "" || seen[strings.ToLower(s)] {
				continue
			}
			seen[strings.ToLower(s)] = true
			subs = append(subs, s)
		}

		out = append(out, CategoryPreset{Main: main, Subs: subs})
	}
	return out, nil
}
