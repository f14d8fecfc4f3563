package repository

import (
	"time"

	"github.com/lib/pq"

	"github.com/priospace/core/internal/domain/entities"
)

// taskRow mirrors one ps_tasks row.
type taskRow struct {
	ID               string    `db:"id"`
	Date             string    `db:"date"`
	Title            string    `db:"title"`
	Completed        bool      `db:"completed"`
	TimeSpent        int       `db:"time_spent"`
	FocusTime        int       `db:"focus_time"`
	CreatedAt        time.Time `db:"created_at"`
	TagID            *string   `db:"tag_id"`
	ParentTaskID     *string   `db:"parent_task_id"`
	SubtasksExpanded bool      `db:"subtasks_expanded"`
	IsDeleted        bool      `db:"is_deleted"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// habitRow mirrors one ps_habits row.
type habitRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	TagID          *string        `db:"tag_id"`
	CompletedDates pq.StringArray `db:"completed_dates"`
	IsDeleted      bool           `db:"is_deleted"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// tagRow mirrors one ps_tags row.
type tagRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Color     *string   `db:"color"`
	IsDeleted bool      `db:"is_deleted"`
	UpdatedAt time.Time `db:"updated_at"`
}

// defaultTagColor stands in for rows written before colors existed.
const defaultTagColor = "#888888"

func taskToRow(task *entities.Task, dateKey string) taskRow {
	createdAt := task.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return taskRow{
		ID:               task.ID,
		Date:             dateKey,
		Title:            task.Title,
		Completed:        task.Completed,
		TimeSpent:        task.TimeSpent,
		FocusTime:        task.FocusTime,
		CreatedAt:        createdAt,
		TagID:            nullable(task.Tag),
		ParentTaskID:     nullable(task.ParentTaskID),
		SubtasksExpanded: task.SubtasksExpanded,
		IsDeleted:        false,
		UpdatedAt:        time.Now(),
	}
}

func rowToTask(row taskRow) *entities.Task {
	return &entities.Task{
		ID:               row.ID,
		Title:            row.Title,
		Completed:        row.Completed,
		TimeSpent:        row.TimeSpent,
		FocusTime:        row.FocusTime,
		CreatedAt:        row.CreatedAt,
		Tag:              deref(row.TagID),
		ParentTaskID:     deref(row.ParentTaskID),
		SubtasksExpanded: row.SubtasksExpanded,
		Subtasks:         []*entities.Task{},
	}
}

func habitToRow(habit *entities.Habit) habitRow {
	dates := habit.CompletedDates
	if dates == nil {
		dates = []string{}
	}
	return habitRow{
		ID:             habit.ID,
		Name:           habit.Name,
		TagID:          nullable(habit.Tag),
		CompletedDates: pq.StringArray(dates),
		IsDeleted:      false,
		UpdatedAt:      time.Now(),
	}
}

func rowToHabit(row habitRow) *entities.Habit {
	return &entities.Habit{
		ID:             row.ID,
		Name:           row.Name,
		Tag:            deref(row.TagID),
		CompletedDates: []string(row.CompletedDates),
	}
}

func tagToRow(tag *entities.Tag) tagRow {
	return tagRow{
		ID:        tag.ID,
		Name:      tag.Name,
		Color:     nullable(tag.Color),
		IsDeleted: false,
		UpdatedAt: time.Now(),
	}
}

func rowToTag(row tagRow) *entities.Tag {
	color := deref(row.Color)
	if color == "" {
		color = defaultTagColor
	}
	return &entities.Tag{
		ID:    row.ID,
		Name:  row.Name,
		Color: color,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
