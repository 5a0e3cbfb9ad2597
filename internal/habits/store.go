package habits

import (
	"context"
	"sort"
	"sync"
)

// Store persists habits. Every lookup is scoped to the owning user; a habit
// owned by someone else is reported as ErrNotFound.
type Store interface {
	Create(ctx context.Context, h Habit) error
	ListByOwner(ctx context.Context, userID string) ([]Habit, error)
	Get(ctx context.Context, userID, id string) (Habit, error)
	Update(ctx context.Context, h Habit) error
	Delete(ctx context.Context, userID, id string) error
}

type InMemoryStore struct {
	mu     sync.RWMutex
	habits map[string]Habit
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{habits: make(map[string]Habit)}
}

func (s *InMemoryStore) Create(_ context.Context, h Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits[h.ID] = h
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, userID string) ([]Habit, error) {
	s.mu.RLock()
	out := make([]Habit, 0)
	for _, h := range s.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, userID, id string) (Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.habits[id]
	if !ok || h.UserID != userID {
		return Habit{}, ErrNotFound
	}
	return h, nil
}

func (s *InMemoryStore) Update(_ context.Context, h Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.habits[h.ID]
	if !ok || existing.UserID != h.UserID {
		return ErrNotFound
	}
	h.CreatedAt = existing.CreatedAt
	s.habits[h.ID] = h
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.UserID != userID {
		return ErrNotFound
	}
	delete(s.habits, id)
	return nil
}

func sortNewestFirst(hs []Habit) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
			return hs[i].ID > hs[j].ID
		}
		return hs[i].CreatedAt.After(hs[j].CreatedAt)
	})
}
