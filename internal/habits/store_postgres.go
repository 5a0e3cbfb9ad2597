package habits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresStore{db: db}, nil
}

const selectHabitColumns = `SELECT id, user_id, name, description, frequency, created_at FROM habits`

func (s *PostgresStore) Create(ctx context.Context, h Habit) error {
	const q = `
INSERT INTO habits (id, user_id, name, description, frequency, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, q, h.ID, h.UserID, h.Name, h.Description, string(h.Frequency), h.CreatedAt); err != nil {
		return fmt.Errorf("insert habit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, userID string) ([]Habit, error) {
	const q = selectHabitColumns + ` WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	out := make([]Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, id string) (Habit, error) {
	const q = selectHabitColumns + ` WHERE id = $1 AND user_id = $2`
	h, err := scanHabit(s.db.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Habit{}, ErrNotFound
		}
		return Habit{}, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

func (s *PostgresStore) Update(ctx context.Context, h Habit) error {
	const q = `
UPDATE habits
SET name = $3,
	description = $4,
	frequency = $5
WHERE id = $1 AND user_id = $2`
	res, err := s.db.ExecContext(ctx, q, h.ID, h.UserID, h.Name, h.Description, string(h.Frequency))
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM habits WHERE id = $1 AND user_id = $2`
	res, err := s.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (Habit, error) {
	var h Habit
	var freq string
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &freq, &h.CreatedAt); err != nil {
		return Habit{}, err
	}
	h.Frequency = Frequency(freq)
	return h, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
