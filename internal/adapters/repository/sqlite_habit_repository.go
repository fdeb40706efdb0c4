package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

var _ domain.HabitRepository = (*SQLiteHabitRepository)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS habits (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    color            TEXT NOT NULL,
    type             TEXT NOT NULL,
    categories       TEXT NOT NULL DEFAULT '[]',
    frequency_type   TEXT NOT NULL,
    selected_days    TEXT NOT NULL DEFAULT '[]',
    times_per_period INTEGER NOT NULL DEFAULT 1 CHECK (times_per_period >= 1),
    period_unit      TEXT NOT NULL DEFAULT 'week',
    repeat_days      INTEGER NOT NULL DEFAULT 1 CHECK (repeat_days >= 1),
    completed        TEXT NOT NULL DEFAULT '{}',
    sort_order       INTEGER NOT NULL DEFAULT 0,
    created_at_ms    INTEGER NOT NULL DEFAULT 0,
    updated_at_ms    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habits_sort_order ON habits (sort_order, id);
`

const sqliteHabitColumns = `id, name, description, color, type, categories, frequency_type,
    selected_days, times_per_period, period_unit, repeat_days, completed,
    sort_order, created_at_ms, updated_at_ms`

// SQLiteHabitRepository stores habits in a single-file database for
// self-hosted installs without Postgres.
type SQLiteHabitRepository struct {
	db *sqlx.DB
}

// OpenSQLite opens path with the modernc driver and creates the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

func NewSQLiteHabitRepository(db *sqlx.DB) *SQLiteHabitRepository {
	return &SQLiteHabitRepository{db: db}
}

type sqliteHabitRow struct {
	jsonColumns
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	Color          string `db:"color"`
	Type           string `db:"type"`
	FrequencyType  string `db:"frequency_type"`
	SelectedDays   string `db:"selected_days"`
	TimesPerPeriod int    `db:"times_per_period"`
	PeriodUnit     string `db:"period_unit"`
	RepeatDays     int    `db:"repeat_days"`
	SortOrder      int    `db:"sort_order"`
	CreatedAtMS    int64  `db:"created_at_ms"`
	UpdatedAtMS    int64  `db:"updated_at_ms"`
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (row *sqliteHabitRow) toDomain() (*domain.Habit, error) {
	h := &domain.Habit{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		Color:          row.Color,
		Type:           row.Type,
		FrequencyType:  row.FrequencyType,
		TimesPerPeriod: row.TimesPerPeriod,
		PeriodUnit:     row.PeriodUnit,
		RepeatDays:     row.RepeatDays,
		Order:          row.SortOrder,
		CreatedAt:      fromMillis(row.CreatedAtMS),
		UpdatedAt:      fromMillis(row.UpdatedAtMS),
	}
	if row.SelectedDays != "" {
		if err := json.Unmarshal([]byte(row.SelectedDays), &h.SelectedDays); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selected days: %w", err)
		}
		if len(h.SelectedDays) == 0 {
			h.SelectedDays = nil
		}
	}
	if err := row.decodeInto(h); err != nil {
		return nil, err
	}
	return h, nil
}

func selectedDaysJSON(h *domain.Habit) (string, error) {
	days := h.SelectedDays
	if days == nil {
		days = []string{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("failed to marshal selected days: %w", err)
	}
	return string(b), nil
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func (r *SQLiteHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	cols, err := encodeJSONColumns(h)
	if err != nil {
		return err
	}
	days, err := selectedDaysJSON(h)
	if err != nil {
		return err
	}

	query := `INSERT INTO habits (` + sqliteHabitColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		h.ID, h.Name, h.Description, h.Color, h.Type, string(cols.Categories), h.FrequencyType,
		days, h.TimesPerPeriod, h.PeriodUnit, h.RepeatDays, string(cols.Completed),
		h.Order, toMillis(h.CreatedAt), toMillis(h.UpdatedAt),
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return domain.ErrHabitConflict
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}
	return nil
}

func (r *SQLiteHabitRepository) GetByID(ctx context.Context, id int64) (*domain.Habit, error) {
	query := `SELECT ` + sqliteHabitColumns + ` FROM habits WHERE id = ?`

	var row sqliteHabitRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return row.toDomain()
}

func (r *SQLiteHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	query := `SELECT ` + sqliteHabitColumns + ` FROM habits ORDER BY sort_order ASC, id ASC`

	var rows []sqliteHabitRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	habits := make([]*domain.Habit, 0, len(rows))
	for i := range rows {
		h, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("row decode error: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (r *SQLiteHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	cols, err := encodeJSONColumns(h)
	if err != nil {
		return err
	}
	days, err := selectedDaysJSON(h)
	if err != nil {
		return err
	}

	query := `
        UPDATE habits SET
            name=?, description=?, color=?, type=?, categories=?,
            frequency_type=?, selected_days=?, times_per_period=?, period_unit=?,
            repeat_days=?, completed=?, sort_order=?, created_at_ms=?, updated_at_ms=?
        WHERE id=?`

	res, err := r.db.ExecContext(ctx, query,
		h.Name, h.Description, h.Color, h.Type, string(cols.Categories),
		h.FrequencyType, days, h.TimesPerPeriod, h.PeriodUnit,
		h.RepeatDays, string(cols.Completed), h.Order, toMillis(h.CreatedAt), toMillis(h.UpdatedAt),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("update query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}

func (r *SQLiteHabitRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}
