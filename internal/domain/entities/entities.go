package entities

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Common errors
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTagNotFound   = errors.New("tag not found")
	ErrHabitNotFound = errors.New("habit not found")
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrBadDateKey    = errors.New("date key must be formatted YYYY-MM-DD")
)

// DateKeyLayout is the calendar-date format used as the task partition key.
const DateKeyLayout = "2006-01-02"

// DateKeyOf returns the partition key for t in t's location.
func DateKeyOf(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD partition key.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return time.Time{}, ErrBadDateKey
	}
	return t, nil
}

// IsDateKey reports whether key is a well-formed partition key.
func IsDateKey(key string) bool {
	_, err := ParseDateKey(key)
	return err == nil
}

// Tag is a user-defined label. Tasks, subtasks and habits reference it by id;
// the reference is optional and survives tag deletion as a cleared field.
type Tag struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// NormalizedName is the natural key used to match tags across devices.
func (t *Tag) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(t.Name))
}

// Task is a dated task. A task with a non-empty ParentTaskID is a subtask;
// subtasks never carry their own subtasks. Virtual tasks projected from
// habits set IsHabit and HabitID and are never stored.
type Task struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Completed        bool      `json:"completed"`
	TimeSpent        int       `json:"timeSpent"`
	FocusTime        int       `json:"focusTime"`
	CreatedAt        time.Time `json:"createdAt"`
	Tag              string    `json:"tag,omitempty"`
	ParentTaskID     string    `json:"parentTaskId,omitempty"`
	Subtasks         []*Task   `json:"subtasks"`
	SubtasksExpanded bool      `json:"subtasksExpanded"`

	IsHabit bool   `json:"isHabit,omitempty"`
	HabitID string `json:"habitId,omitempty"`
}

// IsSubtask reports whether the task is owned by a parent task.
func (t *Task) IsSubtask() bool {
	return t.ParentTaskID != ""
}

// DateKey returns the task's partition key.
func (t *Task) DateKey() string {
	return DateKeyOf(t.CreatedAt)
}

// NormalizedTitle is the natural key used to match tasks across devices.
func (t *Task) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(t.Title))
}

// Normalize repairs a task decoded from an external source: negative
// counters are clamped, the subtasks slice always exists, and each subtask
// is re-parented with depth capped at one. Subtasks with a zero creation
// time inherit the parent's.
func (t *Task) Normalize() {
	if t.TimeSpent < 0 {
		t.TimeSpent = 0
	}
	if t.FocusTime < 0 {
		t.FocusTime = 0
	}
	if t.Subtasks == nil {
		t.Subtasks = []*Task{}
	}
	for _, st := range t.Subtasks {
		st.ParentTaskID = t.ID
		st.Subtasks = []*Task{}
		st.SubtasksExpanded = false
		if st.TimeSpent < 0 {
			st.TimeSpent = 0
		}
		if st.FocusTime < 0 {
			st.FocusTime = 0
		}
		if st.CreatedAt.IsZero() {
			st.CreatedAt = t.CreatedAt
		}
	}
}

// Clone returns a deep copy of the task and its subtasks.
func (t *Task) Clone() *Task {
	c := *t
	c.Subtasks = make([]*Task, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		sc := *st
		sc.Subtasks = []*Task{}
		c.Subtasks = append(c.Subtasks, &sc)
	}
	return &c
}

// FindSubtask returns the subtask with the given id, or nil.
func (t *Task) FindSubtask(id string) *Task {
	for _, st := range t.Subtasks {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// Habit is a recurring-practice template. It has no date partition of its
// own: completion is a growing set of partition keys.
type Habit struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Tag            string   `json:"tag,omitempty"`
	CompletedDates []string `json:"completedDates"`
}

// NormalizedName is the natural key used to match habits across devices.
func (h *Habit) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(h.Name))
}

// CompletedOn reports whether the habit was completed on the given date.
func (h *Habit) CompletedOn(dateKey string) bool {
	for _, d := range h.CompletedDates {
		if d == dateKey {
			return true
		}
	}
	return false
}

// MarkCompleted records completion for the given date. Idempotent.
func (h *Habit) MarkCompleted(dateKey string) {
	if h.CompletedOn(dateKey) {
		return
	}
	h.CompletedDates = append(h.CompletedDates, dateKey)
	sort.Strings(h.CompletedDates)
}

// UnmarkCompleted removes completion for the given date. Idempotent.
func (h *Habit) UnmarkCompleted(dateKey string) {
	out := h.CompletedDates[:0]
	for _, d := range h.CompletedDates {
		if d != dateKey {
			out = append(out, d)
		}
	}
	h.CompletedDates = out
}

// UnionCompletedDates merges the incoming completion set into the habit's
// own. The result is duplicate-free and sorted; the set never shrinks.
func (h *Habit) UnionCompletedDates(incoming []string) {
	seen := make(map[string]struct{}, len(h.CompletedDates)+len(incoming))
	for _, d := range h.CompletedDates {
		seen[d] = struct{}{}
	}
	for _, d := range incoming {
		seen[d] = struct{}{}
	}
	merged := make([]string, 0, len(seen))
	for d := range seen {
		merged = append(merged, d)
	}
	sort.Strings(merged)
	h.CompletedDates = merged
}

// Clone returns a deep copy of the habit.
func (h *Habit) Clone() *Habit {
	c := *h
	c.CompletedDates = append([]string(nil), h.CompletedDates...)
	return &c
}

// Settings are the user preferences that travel inside snapshots.
type Settings struct {
	DarkMode bool   `json:"darkMode"`
	Theme    string `json:"theme"`
}

// SnapshotVersion marks the current backup format.
const SnapshotVersion = "3.0"

// Snapshot is the persisted backup shape. The store round-trips through it
// exactly: export then import reproduces an equivalent store.
type Snapshot struct {
	DailyTasks map[string][]*Task `json:"dailyTasks"`
	CustomTags []*Tag             `json:"customTags"`
	Habits     []*Habit           `json:"habits"`
	DarkMode   bool               `json:"darkMode"`
	Theme      string             `json:"theme"`
	ExportDate time.Time          `json:"exportDate"`
	Version    string             `json:"version"`
}

// SharePayload is the merge-engine input boundary: a snapshot received from
// a peer instance. Every key is optional; an absent key means there is
// nothing to merge for that kind. Pointer fields distinguish absent
// settings from zero-valued ones.
type SharePayload struct {
	CustomTags []*Tag             `json:"customTags,omitempty"`
	DailyTasks map[string][]*Task `json:"dailyTasks,omitempty"`
	Habits     []*Habit           `json:"habits,omitempty"`
	DarkMode   *bool              `json:"darkMode,omitempty"`
	Theme      *string            `json:"theme,omitempty"`
}
