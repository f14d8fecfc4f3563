package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// HabitService handles habit template operations.
type HabitService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewHabitService creates a new habit service.
func NewHabitService(s *store.Store, logger *logger.Logger) *HabitService {
	return &HabitService{store: s, logger: logger}
}

// ListHabits returns all habit templates.
func (s *HabitService) ListHabits() []*entities.Habit {
	return s.store.Habits()
}

// CreateHabit creates a habit template with no completions.
func (s *HabitService) CreateHabit(req ports.CreateHabitRequest) (*entities.Habit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("habit name is required")
	}

	habit := &entities.Habit{
		ID:             uuid.NewString(),
		Name:           name,
		Tag:            req.TagID,
		CompletedDates: []string{},
	}
	s.store.UpsertHabit(habit)
	s.logger.Info("Habit created", "habit_id", habit.ID, "name", habit.Name)
	return habit, nil
}

// UpdateHabit patches habit fields. Completion history is never edited
// here; it changes only through toggles and merges.
func (s *HabitService) UpdateHabit(id string, req ports.UpdateHabitRequest) (*entities.Habit, error) {
	habit := s.store.FindHabit(id)
	if habit == nil {
		return nil, entities.ErrHabitNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("habit name is required")
		}
		habit.Name = name
	}
	if req.TagID != nil {
		habit.Tag = *req.TagID
	}
	s.store.UpsertHabit(habit)
	return habit, nil
}

// ToggleHabit flips the habit's completion for one date.
func (s *HabitService) ToggleHabit(id string, req ports.ToggleHabitRequest) (*entities.Habit, error) {
	habit := s.store.ToggleHabitDate(id, req.DateKey)
	if habit == nil {
		return nil, entities.ErrHabitNotFound
	}
	return habit, nil
}

// DeleteHabit removes a habit template and its projections with it.
func (s *HabitService) DeleteHabit(id string) error {
	if !s.store.RemoveHabit(id) {
		return entities.ErrHabitNotFound
	}
	s.logger.Info("Habit deleted", "habit_id", id)
	return nil
}
