// Package projector derives read-only per-day virtual tasks from habits.
// Projections are recomputed on every read and never persisted.
package projector

import (
	"fmt"
	"strings"
	"time"

	"github.com/priospace/core/internal/domain/entities"
)

const idPrefix = "habit-"

// ProjectionID builds the virtual-task id for a habit on a given date.
func ProjectionID(habitID, dateKey string) string {
	return fmt.Sprintf("%s%s-%s", idPrefix, habitID, dateKey)
}

// ParseProjectionID inverts ProjectionID. The habit id may itself contain
// hyphens, so the date key is anchored at the fixed-width suffix.
func ParseProjectionID(id string) (habitID, dateKey string, ok bool) {
	rest, found := strings.CutPrefix(id, idPrefix)
	if !found || len(rest) < len(entities.DateKeyLayout)+2 {
		return "", "", false
	}
	cut := len(rest) - len(entities.DateKeyLayout)
	habitID, dateKey = rest[:cut-1], rest[cut:]
	if rest[cut-1] != '-' || !entities.IsDateKey(dateKey) {
		return "", "", false
	}
	return habitID, dateKey, true
}

// IsProjectionID reports whether the id names a habit projection.
func IsProjectionID(id string) bool {
	_, _, ok := ParseProjectionID(id)
	return ok
}

// Project yields one virtual task per habit for the given date. It is pure
// and deterministic: calling it any number of times has no side effects.
func Project(habits []*entities.Habit, date time.Time) []*entities.Task {
	dateKey := entities.DateKeyOf(date)
	tasks := make([]*entities.Task, 0, len(habits))
	for _, h := range habits {
		tasks = append(tasks, &entities.Task{
			ID:        ProjectionID(h.ID, dateKey),
			Title:     h.Name,
			Completed: h.CompletedOn(dateKey),
			CreatedAt: date,
			Tag:       h.Tag,
			Subtasks:  []*entities.Task{},
			IsHabit:   true,
			HabitID:   h.ID,
		})
	}
	return tasks
}
