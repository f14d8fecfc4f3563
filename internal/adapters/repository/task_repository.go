package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/database"
	"github.com/priospace/core/internal/ports"
)

// TaskRowRepositoryImpl implements the TaskRowRepository interface over
// the ps_tasks table.
type TaskRowRepositoryImpl struct {
	db *database.DB
}

// NewTaskRowRepository creates a new task row repository.
func NewTaskRowRepository(db *database.DB) ports.TaskRowRepository {
	return &TaskRowRepositoryImpl{db: db}
}

func (r *TaskRowRepositoryImpl) Upsert(ctx context.Context, task *entities.Task, dateKey string) error {
	query := `
		INSERT INTO ps_tasks (id, date, title, completed, time_spent, focus_time,
			created_at, tag_id, parent_task_id, subtasks_expanded, is_deleted, updated_at)
		VALUES (:id, :date, :title, :completed, :time_spent, :focus_time,
			:created_at, :tag_id, :parent_task_id, :subtasks_expanded, :is_deleted, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			title = EXCLUDED.title,
			completed = EXCLUDED.completed,
			time_spent = EXCLUDED.time_spent,
			focus_time = EXCLUDED.focus_time,
			created_at = EXCLUDED.created_at,
			tag_id = EXCLUDED.tag_id,
			parent_task_id = EXCLUDED.parent_task_id,
			subtasks_expanded = EXCLUDED.subtasks_expanded,
			is_deleted = EXCLUDED.is_deleted,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.DB.NamedExecContext(ctx, query, taskToRow(task, dateKey)); err != nil {
		return fmt.Errorf("upsert task row: %w", err)
	}
	return nil
}

func (r *TaskRowRepositoryImpl) SoftDelete(ctx context.Context, taskID string) error {
	query := `UPDATE ps_tasks SET is_deleted = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, taskID); err != nil {
		return fmt.Errorf("soft delete task row: %w", err)
	}
	return nil
}

func (r *TaskRowRepositoryImpl) SoftDeleteCascade(ctx context.Context, taskID string) error {
	// Parent and children tombstone in one transaction so the remote never
	// observes a half-deleted cascade.
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ps_tasks SET is_deleted = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
			taskID,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE ps_tasks SET is_deleted = true, updated_at = CURRENT_TIMESTAMP WHERE parent_task_id = $1`,
			taskID,
		); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("soft delete task cascade: %w", err)
	}
	return nil
}

func (r *TaskRowRepositoryImpl) QueryByDate(ctx context.Context, dateKey string) ([]*entities.Task, error) {
	// Parents by date, children by parent id. Querying children through the
	// parent set rather than the date sidesteps rows whose own date drifted,
	// and drops orphans of missing or deleted parents for free.
	parentQuery := `
		SELECT id, date, title, completed, time_spent, focus_time, created_at,
			tag_id, parent_task_id, subtasks_expanded, is_deleted, updated_at
		FROM ps_tasks
		WHERE date = $1 AND parent_task_id IS NULL AND is_deleted = false
		ORDER BY created_at ASC`

	var parentRows []taskRow
	if err := r.db.DB.SelectContext(ctx, &parentRows, parentQuery, dateKey); err != nil {
		return nil, fmt.Errorf("query tasks by date: %w", err)
	}
	if len(parentRows) == 0 {
		return []*entities.Task{}, nil
	}

	parentIDs := make([]string, 0, len(parentRows))
	byID := make(map[string]*entities.Task, len(parentRows))
	tasks := make([]*entities.Task, 0, len(parentRows))
	for _, row := range parentRows {
		t := rowToTask(row)
		parentIDs = append(parentIDs, t.ID)
		byID[t.ID] = t
		tasks = append(tasks, t)
	}

	childQuery := `
		SELECT id, date, title, completed, time_spent, focus_time, created_at,
			tag_id, parent_task_id, subtasks_expanded, is_deleted, updated_at
		FROM ps_tasks
		WHERE parent_task_id = ANY($1) AND is_deleted = false
		ORDER BY created_at ASC`

	var childRows []taskRow
	if err := r.db.DB.SelectContext(ctx, &childRows, childQuery, pq.Array(parentIDs)); err != nil {
		return nil, fmt.Errorf("query subtask rows: %w", err)
	}
	for _, row := range childRows {
		st := rowToTask(row)
		if parent, ok := byID[st.ParentTaskID]; ok {
			parent.Subtasks = append(parent.Subtasks, st)
		}
	}

	return tasks, nil
}
