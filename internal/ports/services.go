package ports

// Request types carried across the HTTP boundary. Field validation runs
// through the server's validator before a request reaches a service.

// CreateTaskRequest creates a top-level task for a calendar date.
type CreateTaskRequest struct {
	Title   string `json:"title" validate:"required,max=500"`
	TagID   string `json:"tag_id,omitempty"`
	DateKey string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreateSubtaskRequest adds a subtask to an existing parent task.
type CreateSubtaskRequest struct {
	Title string `json:"title" validate:"required,max=500"`
	TagID string `json:"tag_id,omitempty"`
}

// UpdateTaskRequest patches task fields. Nil pointers leave the field alone;
// changing the date moves the task between partitions.
type UpdateTaskRequest struct {
	Title            *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Completed        *bool   `json:"completed,omitempty"`
	TagID            *string `json:"tag_id,omitempty"`
	DateKey          *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SubtasksExpanded *bool   `json:"subtasks_expanded,omitempty"`
}

// TransferTaskRequest moves a task to another calendar date.
type TransferTaskRequest struct {
	TargetDate string `json:"target_date" validate:"required,datetime=2006-01-02"`
}

// AddTimeRequest adds elapsed or focus seconds to a task.
type AddTimeRequest struct {
	Seconds int `json:"seconds" validate:"required,gt=0"`
}

// CreateTagRequest creates a custom tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// UpdateTagRequest patches tag fields.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// CreateHabitRequest creates a habit template.
type CreateHabitRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	TagID string `json:"tag_id,omitempty"`
}

// UpdateHabitRequest patches habit fields.
type UpdateHabitRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=200"`
	TagID *string `json:"tag_id,omitempty"`
}

// UpdateSettingsRequest patches display preferences.
type UpdateSettingsRequest struct {
	DarkMode *bool   `json:"darkMode,omitempty"`
	Theme    *string `json:"theme,omitempty" validate:"omitempty,max=50"`
}

// ToggleHabitRequest flips a habit's completion for one date.
type ToggleHabitRequest struct {
	DateKey string `json:"date" validate:"required,datetime=2006-01-02"`
}
