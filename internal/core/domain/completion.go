package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDateKey    = errors.New("invalid date (must be yyyy-MM-dd)")
	ErrInvalidCompletion = errors.New("invalid completion state (must be true, false or null)")
)

// Completion is the tri-state mark of a single day.
type Completion int8

const (
	CompletionUnmarked Completion = iota
	CompletionDone
	CompletionMissed
)

func (c Completion) IsDone() bool {
	return c == CompletionDone
}

// Next returns the state a UI toggle moves to: unmarked, done, missed, unmarked.
func (c Completion) Next() Completion {
	switch c {
	case CompletionUnmarked:
		return CompletionDone
	case CompletionDone:
		return CompletionMissed
	default:
		return CompletionUnmarked
	}
}

func (c Completion) String() string {
	switch c {
	case CompletionDone:
		return "done"
	case CompletionMissed:
		return "missed"
	default:
		return "unmarked"
	}
}

func (c Completion) MarshalJSON() ([]byte, error) {
	switch c {
	case CompletionDone:
		return []byte("true"), nil
	case CompletionMissed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (c *Completion) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*c = CompletionDone
	case "false":
		*c = CompletionMissed
	case "null":
		*c = CompletionUnmarked
	default:
		return ErrInvalidCompletion
	}
	return nil
}

// CompletionFromPtr maps the wire representation (nil, true, false) to a Completion.
func CompletionFromPtr(v *bool) Completion {
	if v == nil {
		return CompletionUnmarked
	}
	if *v {
		return CompletionDone
	}
	return CompletionMissed
}

// CompletionLog maps yyyy-MM-dd keys to the mark of that day.
// Unmarked days are never stored.
type CompletionLog map[string]Completion

func (l CompletionLog) On(t time.Time) Completion {
	return l[DateKey(t)]
}

func (l CompletionLog) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Completion(l))
}

func (l *CompletionLog) UnmarshalJSON(data []byte) error {
	raw := map[string]Completion{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(CompletionLog, len(raw))
	for k, v := range raw {
		if !isDateKey(k) {
			return ErrInvalidDateKey
		}
		if v == CompletionUnmarked {
			continue
		}
		out[k] = v
	}
	*l = out
	return nil
}

// DateKey formats t as yyyy-MM-dd in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDateKey(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

func isDateKey(s string) bool {
	_, err := ParseDateKey(s, time.UTC)
	return err == nil
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
