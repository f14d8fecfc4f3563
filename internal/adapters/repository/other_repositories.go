package repository

import (
	"context"
	"fmt"

	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/database"
	"github.com/priospace/core/internal/ports"
)

// HabitRowRepositoryImpl implements HabitRowRepository over ps_habits.
type HabitRowRepositoryImpl struct {
	db *database.DB
}

// NewHabitRowRepository creates a new habit row repository.
func NewHabitRowRepository(db *database.DB) ports.HabitRowRepository {
	return &HabitRowRepositoryImpl{db: db}
}

func (r *HabitRowRepositoryImpl) Upsert(ctx context.Context, habit *entities.Habit) error {
	query := `
		INSERT INTO ps_habits (id, name, tag_id, completed_dates, is_deleted, updated_at)
		VALUES (:id, :name, :tag_id, :completed_dates, :is_deleted, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tag_id = EXCLUDED.tag_id,
			completed_dates = EXCLUDED.completed_dates,
			is_deleted = EXCLUDED.is_deleted,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.DB.NamedExecContext(ctx, query, habitToRow(habit)); err != nil {
		return fmt.Errorf("upsert habit row: %w", err)
	}
	return nil
}

func (r *HabitRowRepositoryImpl) SoftDelete(ctx context.Context, habitID string) error {
	query := `UPDATE ps_habits SET is_deleted = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, habitID); err != nil {
		return fmt.Errorf("soft delete habit row: %w", err)
	}
	return nil
}

func (r *HabitRowRepositoryImpl) QueryAll(ctx context.Context) ([]*entities.Habit, error) {
	query := `
		SELECT id, name, tag_id, completed_dates, is_deleted, updated_at
		FROM ps_habits
		WHERE is_deleted = false
		ORDER BY updated_at ASC`

	var rows []habitRow
	if err := r.db.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query all habits: %w", err)
	}

	habits := make([]*entities.Habit, 0, len(rows))
	for _, row := range rows {
		habits = append(habits, rowToHabit(row))
	}
	return habits, nil
}

// TagRowRepositoryImpl implements TagRowRepository over ps_tags.
type TagRowRepositoryImpl struct {
	db *database.DB
}

// NewTagRowRepository creates a new tag row repository.
func NewTagRowRepository(db *database.DB) ports.TagRowRepository {
	return &TagRowRepositoryImpl{db: db}
}

func (r *TagRowRepositoryImpl) Upsert(ctx context.Context, tag *entities.Tag) error {
	query := `
		INSERT INTO ps_tags (id, name, color, is_deleted, updated_at)
		VALUES (:id, :name, :color, :is_deleted, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			is_deleted = EXCLUDED.is_deleted,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.DB.NamedExecContext(ctx, query, tagToRow(tag)); err != nil {
		return fmt.Errorf("upsert tag row: %w", err)
	}
	return nil
}

func (r *TagRowRepositoryImpl) SoftDelete(ctx context.Context, tagID string) error {
	query := `UPDATE ps_tags SET is_deleted = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, tagID); err != nil {
		return fmt.Errorf("soft delete tag row: %w", err)
	}
	return nil
}

func (r *TagRowRepositoryImpl) QueryAll(ctx context.Context) ([]*entities.Tag, error) {
	query := `
		SELECT id, name, color, is_deleted, updated_at
		FROM ps_tags
		WHERE is_deleted = false
		ORDER BY updated_at ASC`

	var rows []tagRow
	if err := r.db.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query all tags: %w", err)
	}

	tags := make([]*entities.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, rowToTag(row))
	}
	return tags, nil
}
