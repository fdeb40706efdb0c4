package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ domain.HabitRepository = (*PostgresHabitRepository)(nil)

const pgUniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS habits (
    id               BIGINT PRIMARY KEY,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    color            TEXT NOT NULL,
    type             TEXT NOT NULL,
    categories       JSONB NOT NULL DEFAULT '[]',
    frequency_type   TEXT NOT NULL,
    selected_days    TEXT[] NOT NULL DEFAULT '{}',
    times_per_period INTEGER NOT NULL DEFAULT 1 CHECK (times_per_period >= 1),
    period_unit      TEXT NOT NULL DEFAULT 'week',
    repeat_days      INTEGER NOT NULL DEFAULT 1 CHECK (repeat_days >= 1),
    completed        JSONB NOT NULL DEFAULT '{}',
    sort_order       INTEGER NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habits_sort_order ON habits (sort_order, id);
`

const pgHabitColumns = `id, name, description, color, type, categories, frequency_type,
    selected_days, times_per_period, period_unit, repeat_days, completed,
    sort_order, created_at, updated_at`

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

// Migrate creates the habits table when it does not exist yet.
func (r *PostgresHabitRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

type pgHabitRow struct {
	jsonColumns
	ID             int64          `db:"id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	Color          string         `db:"color"`
	Type           string         `db:"type"`
	FrequencyType  string         `db:"frequency_type"`
	SelectedDays   pq.StringArray `db:"selected_days"`
	TimesPerPeriod int            `db:"times_per_period"`
	PeriodUnit     string         `db:"period_unit"`
	RepeatDays     int            `db:"repeat_days"`
	SortOrder      int            `db:"sort_order"`
	CreatedAt      sql.NullTime   `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (row *pgHabitRow) toDomain() (*domain.Habit, error) {
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
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	if len(row.SelectedDays) > 0 {
		h.SelectedDays = []string(row.SelectedDays)
	}
	if row.CreatedAt.Valid {
		h.CreatedAt = row.CreatedAt.Time.UTC()
	}
	if err := row.decodeInto(h); err != nil {
		return nil, err
	}
	return h, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// textArray never returns nil, which pq would encode as NULL.
func textArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	cols, err := encodeJSONColumns(h)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO habits (` + pgHabitColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15)`

	_, err = r.db.ExecContext(ctx, query,
		h.ID, h.Name, h.Description, h.Color, h.Type, string(cols.Categories), h.FrequencyType,
		textArray(h.SelectedDays), h.TimesPerPeriod, h.PeriodUnit, h.RepeatDays, string(cols.Completed),
		h.Order, nullTime(h.CreatedAt), h.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrHabitConflict
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id int64) (*domain.Habit, error) {
	query := `SELECT ` + pgHabitColumns + ` FROM habits WHERE id = $1`

	var row pgHabitRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return row.toDomain()
}

func (r *PostgresHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	query := `SELECT ` + pgHabitColumns + ` FROM habits ORDER BY sort_order ASC, id ASC`

	var rows []pgHabitRow
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

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	cols, err := encodeJSONColumns(h)
	if err != nil {
		return err
	}

	query := `
        UPDATE habits SET
            name=$1, description=$2, color=$3, type=$4, categories=$5::jsonb,
            frequency_type=$6, selected_days=$7, times_per_period=$8, period_unit=$9,
            repeat_days=$10, completed=$11::jsonb, sort_order=$12, created_at=$13, updated_at=$14
        WHERE id=$15`

	res, err := r.db.ExecContext(ctx, query,
		h.Name, h.Description, h.Color, h.Type, string(cols.Categories),
		h.FrequencyType, textArray(h.SelectedDays), h.TimesPerPeriod, h.PeriodUnit,
		h.RepeatDays, string(cols.Completed), h.Order, nullTime(h.CreatedAt), h.UpdatedAt,
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

func (r *PostgresHabitRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
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
