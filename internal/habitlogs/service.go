// Package habitlogs records completion status against habits and aggregates
// it into per-habit summaries.
package habitlogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"habittracker/habits-api/internal/habits"
)

var (
	ErrInvalidInput  = errors.New("invalid habit log input")
	ErrHabitNotFound = errors.New("habit not found")
)

// HabitLookup resolves a habit for its owner. habits.Service satisfies it.
type HabitLookup interface {
	Get(ctx context.Context, userID, id string) (habits.Habit, error)
}

type Service struct {
	store   Store
	habits  HabitLookup
	nowFunc func() time.Time
	newID   func() string
}

func NewService(store Store, lookup HabitLookup) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("habit log store is required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("habit lookup is required")
	}
	return &Service{
		store:   store,
		habits:  lookup,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Record logs a status for one of the caller's habits, dated now.
func (s *Service) Record(ctx context.Context, userID, habitID, status string) (HabitLog, error) {
	habitID = strings.TrimSpace(habitID)
	if habitID == "" {
		return HabitLog{}, fmt.Errorf("%w: habitId is required", ErrInvalidInput)
	}
	st, ok := ParseStatus(status)
	if !ok {
		return HabitLog{}, fmt.Errorf("%w: status must be Completed or Missed", ErrInvalidInput)
	}

	h, err := s.habits.Get(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, habits.ErrNotFound) {
			return HabitLog{}, ErrHabitNotFound
		}
		return HabitLog{}, fmt.Errorf("lookup habit: %w", err)
	}

	l := HabitLog{
		ID:      s.newID(),
		UserID:  userID,
		HabitID: h.ID,
		Date:    s.nowFunc().UTC(),
		Status:  st,
	}
	if err := s.store.Create(ctx, l); err != nil {
		return HabitLog{}, fmt.Errorf("record habit log: %w", err)
	}
	return l, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]HabitLog, error) {
	logs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	if logs == nil {
		logs = []HabitLog{}
	}
	return logs, nil
}

func (s *Service) Summarize(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.store.Summarize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("summarize habits: %w", err)
	}
	if rows == nil {
		rows = []Summary{}
	}
	return rows, nil
}
