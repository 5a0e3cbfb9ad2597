package habitlogs

import (
	"context"
	"errors"
	"sync"

	"habittracker/habits-api/internal/habits"
)

type Store interface {
	Create(ctx context.Context, l HabitLog) error
	// ListByUser returns the user's logs with Habit populated.
	ListByUser(ctx context.Context, userID string) ([]HabitLog, error)
	// Summarize returns one row per habit the user owns, including habits
	// with no logs.
	Summarize(ctx context.Context, userID string) ([]Summary, error)
}

// HabitSource is the read side of the habit store that the in-memory log
// store joins against.
type HabitSource interface {
	ListByOwner(ctx context.Context, userID string) ([]habits.Habit, error)
	Get(ctx context.Context, userID, id string) (habits.Habit, error)
}

// InMemoryStore keeps logs in a slice in insertion order. Logs whose habit
// has been deleted are treated as removed along with it.
type InMemoryStore struct {
	habits HabitSource

	mu   sync.RWMutex
	logs []HabitLog
}

func NewInMemoryStore(habitSource HabitSource) *InMemoryStore {
	return &InMemoryStore{habits: habitSource}
}

func (s *InMemoryStore) Create(_ context.Context, l HabitLog) error {
	l.Habit = nil
	s.mu.Lock()
	s.logs = append(s.logs, l)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID string) ([]HabitLog, error) {
	s.mu.RLock()
	owned := make([]HabitLog, 0)
	for _, l := range s.logs {
		if l.UserID == userID {
			owned = append(owned, l)
		}
	}
	s.mu.RUnlock()

	out := make([]HabitLog, 0, len(owned))
	for _, l := range owned {
		h, err := s.habits.Get(ctx, userID, l.HabitID)
		if err != nil {
			if errors.Is(err, habits.ErrNotFound) {
				continue
			}
			return nil, err
		}
		l.Habit = &h
		out = append(out, l)
	}
	return out, nil
}

func (s *InMemoryStore) Summarize(ctx context.Context, userID string) ([]Summary, error) {
	owned, err := s.habits.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	type counts struct{ done, missed int }
	byHabit := make(map[string]counts, len(owned))
	s.mu.RLock()
	for _, l := range s.logs {
		if l.UserID != userID {
			continue
		}
		c := byHabit[l.HabitID]
		switch l.Status {
		case Completed:
			c.done++
		case Missed:
			c.missed++
		}
		byHabit[l.HabitID] = c
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(owned))
	for _, h := range owned {
		c := byHabit[h.ID]
		out = append(out, Summary{
			HabitID:     h.ID,
			HabitName:   h.Name,
			DoneCount:   c.done,
			MissedCount: c.missed,
		})
	}
	return out, nil
}
