// Package habits manages the habits a user tracks.
package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("habit not found")
	ErrInvalidInput = errors.New("invalid habit input")
)

type Service struct {
	store   Store
	nowFunc func() time.Time
	newID   func() string
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("habit store is required")
	}
	return &Service{
		store:   store,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}, nil
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Habit{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	freq, ok := ParseFrequency(in.Frequency)
	if !ok {
		return Habit{}, fmt.Errorf("%w: frequency must be Daily, Weekly or Monthly", ErrInvalidInput)
	}

	h := Habit{
		ID:          s.newID(),
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Frequency:   freq,
		CreatedAt:   s.nowFunc().UTC(),
	}
	if err := s.store.Create(ctx, h); err != nil {
		return Habit{}, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

// List returns the user's habits, newest first. The result is never nil.
func (s *Service) List(ctx context.Context, userID string) ([]Habit, error) {
	hs, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	if hs == nil {
		hs = []Habit{}
	}
	return hs, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Habit, error) {
	id, ok := canonicalID(id)
	if !ok {
		return Habit{}, ErrNotFound
	}
	h, err := s.store.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Habit{}, ErrNotFound
		}
		return Habit{}, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (Habit, error) {
	h, err := s.Get(ctx, userID, id)
	if err != nil {
		return Habit{}, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return Habit{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		h.Name = name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Frequency != nil {
		freq, ok := ParseFrequency(*p.Frequency)
		if !ok {
			return Habit{}, fmt.Errorf("%w: frequency must be Daily, Weekly or Monthly", ErrInvalidInput)
		}
		h.Frequency = freq
	}

	if err := s.store.Update(ctx, h); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Habit{}, ErrNotFound
		}
		return Habit{}, fmt.Errorf("update habit: %w", err)
	}
	return h, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// canonicalID accepts any form uuid.Parse does (upper case, braces, urn
// prefix) and returns the lower-case hyphenated form the stores key on.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
