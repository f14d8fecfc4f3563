package ports

import (
	"context"

	"github.com/priospace/core/internal/domain/entities"
)

// TaskRowRepository is the remote row store for tasks. Rows are keyed by id;
// deletion is a tombstone (is_deleted) so it propagates on the next pull.
type TaskRowRepository interface {
	// Upsert writes the task (or subtask) row for the given partition key,
	// refreshing updated_at.
	Upsert(ctx context.Context, task *entities.Task, dateKey string) error
	// SoftDelete tombstones the single row with the given id.
	SoftDelete(ctx context.Context, taskID string) error
	// SoftDeleteCascade tombstones the row and, in the same logical
	// operation, every row whose parent_task_id equals it. The remote store
	// does not know the local cascade already happened.
	SoftDeleteCascade(ctx context.Context, taskID string) error
	// QueryByDate returns the assembled parent tasks for the partition,
	// non-deleted only, ordered by creation time, with subtasks regrouped
	// under their parents. Rows whose declared parent is missing or deleted
	// are dropped silently.
	QueryByDate(ctx context.Context, dateKey string) ([]*entities.Task, error)
}

// HabitRowRepository is the remote row store for habits.
type HabitRowRepository interface {
	Upsert(ctx context.Context, habit *entities.Habit) error
	SoftDelete(ctx context.Context, habitID string) error
	// QueryAll returns all non-deleted habits ordered by last-update time.
	QueryAll(ctx context.Context) ([]*entities.Habit, error)
}

// TagRowRepository is the remote row store for tags.
type TagRowRepository interface {
	Upsert(ctx context.Context, tag *entities.Tag) error
	SoftDelete(ctx context.Context, tagID string) error
	// QueryAll returns all non-deleted tags ordered by last-update time.
	QueryAll(ctx context.Context) ([]*entities.Tag, error)
}
