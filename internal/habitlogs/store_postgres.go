package habitlogs

import (
	"context"
	"database/sql"
	"fmt"

	"habittracker/habits-api/internal/habits"
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

func (s *PostgresStore) Create(ctx context.Context, l HabitLog) error {
	const q = `
INSERT INTO habit_logs (id, user_id, habit_id, logged_at, status)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, q, l.ID, l.UserID, l.HabitID, l.Date, string(l.Status)); err != nil {
		return fmt.Errorf("insert habit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]HabitLog, error) {
	const q = `
SELECT l.id, l.user_id, l.habit_id, l.logged_at, l.status,
	h.id, h.user_id, h.name, h.description, h.frequency, h.created_at
FROM habit_logs l
JOIN habits h ON h.id = l.habit_id
WHERE l.user_id = $1
ORDER BY l.logged_at ASC, l.id ASC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer rows.Close()

	out := make([]HabitLog, 0)
	for rows.Next() {
		var (
			l      HabitLog
			h      habits.Habit
			status string
			freq   string
		)
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.HabitID, &l.Date, &status,
			&h.ID, &h.UserID, &h.Name, &h.Description, &freq, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		l.Status = Status(status)
		h.Frequency = habits.Frequency(freq)
		l.Habit = &h
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habit logs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Summarize(ctx context.Context, userID string) ([]Summary, error) {
	const q = `
SELECT h.id, h.name,
	COUNT(l.id) FILTER (WHERE l.status = 'Completed') AS done_count,
	COUNT(l.id) FILTER (WHERE l.status = 'Missed') AS missed_count
FROM habits h
LEFT JOIN habit_logs l ON l.habit_id = h.id
WHERE h.user_id = $1
GROUP BY h.id, h.name, h.created_at
ORDER BY h.created_at DESC, h.id DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("summarize habit logs: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var row Summary
		if err := rows.Scan(&row.HabitID, &row.HabitName, &row.DoneCount, &row.MissedCount); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return out, nil
}
