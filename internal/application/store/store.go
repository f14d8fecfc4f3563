// Package store holds the authoritative in-process state for all entities.
// Every other component reads and writes through it; it never talks to the
// network itself.
package store

import (
	"sync"
	"time"

	"github.com/priospace/core/internal/domain/entities"
)

// ChangeListener observes local mutations so they can be propagated outward.
// Bulk replacements (pull application, backup import, snapshot merge) do not
// emit events: pulled and merged data must never boomerang back to a remote.
type ChangeListener interface {
	TaskUpserted(dateKey string, task *entities.Task)
	TaskMoved(task *entities.Task, fromKey, toKey string)
	TaskRemoved(taskID string)
	TagUpserted(tag *entities.Tag)
	TagRemoved(tagID string)
	HabitUpserted(habit *entities.Habit)
	HabitRemoved(habitID string)
}

// Store is the in-memory, date-partitioned entity collection. Mutations are
// serialized by an internal lock because the HTTP surface and the sync loop
// run on separate goroutines.
type Store struct {
	mu       sync.RWMutex
	daily    map[string][]*entities.Task
	tags     []*entities.Tag
	habits   []*entities.Habit
	settings entities.Settings
	listener ChangeListener
}

// New creates an empty store.
func New() *Store {
	return &Store{
		daily: make(map[string][]*entities.Task),
	}
}

// SetListener registers the single change listener. Must be called before
// the store is shared between goroutines.
func (s *Store) SetListener(l ChangeListener) {
	s.listener = l
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

// TasksForDate returns a deep copy of the date bucket, empty if absent.
func (s *Store) TasksForDate(dateKey string) []*entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.daily[dateKey])
}

// DateKeys returns every non-empty partition key.
func (s *Store) DateKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.daily))
	for k := range s.daily {
		keys = append(keys, k)
	}
	return keys
}

// UpsertTask inserts the task into the given date bucket, or replaces the
// stored task (or subtask) with the same id. Idempotent.
func (s *Store) UpsertTask(dateKey string, task *entities.Task) {
	task.Normalize()
	s.mu.Lock()
	bucket := s.daily[dateKey]
	replaced := false
	for i, t := range bucket {
		if t.ID == task.ID {
			bucket[i] = task
			replaced = true
			break
		}
		if st := t.FindSubtask(task.ID); st != nil {
			*st = *task
			replaced = true
			break
		}
	}
	if !replaced {
		s.daily[dateKey] = append(bucket, task)
	}
	snapshot := task.Clone()
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.TaskUpserted(dateKey, snapshot)
	}
}

// RemoveTask deletes the task with the given id from any bucket. When the
// target is a parent task its subtasks go with it; removing a subtask never
// touches the parent. Returns false if no task matched.
func (s *Store) RemoveTask(taskID string) bool {
	s.mu.Lock()
	removed := false
	for key, bucket := range s.daily {
		next := bucket[:0]
		for _, t := range bucket {
			if t.ID == taskID {
				removed = true
				continue
			}
			if st := t.FindSubtask(taskID); st != nil {
				subs := t.Subtasks[:0]
				for _, c := range t.Subtasks {
					if c.ID != taskID {
						subs = append(subs, c)
					}
				}
				t.Subtasks = subs
				removed = true
			}
			next = append(next, t)
		}
		if len(next) == 0 {
			delete(s.daily, key)
		} else {
			s.daily[key] = next
		}
		if removed {
			break
		}
	}
	s.mu.Unlock()

	if removed && s.listener != nil {
		s.listener.TaskRemoved(taskID)
	}
	return removed
}

// MoveTask carries a parent task from one date bucket to another, updating
// its creation date and its subtasks' dates to the target day. The source
// bucket is deleted once empty. No-op when the keys are equal or the task
// is not in the source bucket.
func (s *Store) MoveTask(taskID, fromKey, toKey string) *entities.Task {
	if fromKey == toKey {
		return nil
	}
	target, err := entities.ParseDateKey(toKey)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	var moved *entities.Task
	bucket := s.daily[fromKey]
	next := bucket[:0]
	for _, t := range bucket {
		if t.ID == taskID && !t.IsSubtask() {
			moved = t
			continue
		}
		next = append(next, t)
	}
	if moved == nil {
		s.mu.Unlock()
		return nil
	}
	if len(next) == 0 {
		delete(s.daily, fromKey)
	} else {
		s.daily[fromKey] = next
	}
	moved.CreatedAt = atSameClock(moved.CreatedAt, target)
	for _, st := range moved.Subtasks {
		st.CreatedAt = atSameClock(st.CreatedAt, target)
	}
	s.daily[toKey] = append(s.daily[toKey], moved)
	snapshot := moved.Clone()
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.TaskMoved(snapshot, fromKey, toKey)
	}
	return snapshot
}

// FindTask searches the given date bucket and its subtasks. Returns nil if
// absent; lookup misses are not errors. Linear scan: per-day task counts
// are tens, not thousands.
func (s *Store) FindTask(dateKey, taskID string) *entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.daily[dateKey] {
		if t.ID == taskID {
			return t.Clone()
		}
		if st := t.FindSubtask(taskID); st != nil {
			c := *st
			c.Subtasks = []*entities.Task{}
			return &c
		}
	}
	return nil
}

// LocateTask searches every bucket for the task id and returns the task
// together with its partition key.
func (s *Store) LocateTask(taskID string) (*entities.Task, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, bucket := range s.daily {
		for _, t := range bucket {
			if t.ID == taskID {
				return t.Clone(), key
			}
			if st := t.FindSubtask(taskID); st != nil {
				c := *st
				c.Subtasks = []*entities.Task{}
				return &c, key
			}
		}
	}
	return nil, ""
}

// SetTasksForDate replaces a date bucket wholesale without emitting change
// events. Used when applying pulled or merged data. An empty slice deletes
// the bucket.
func (s *Store) SetTasksForDate(dateKey string, tasks []*entities.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tasks) == 0 {
		delete(s.daily, dateKey)
		return
	}
	s.daily[dateKey] = cloneTasks(tasks)
}

// ─── Tags ────────────────────────────────────────────────────────────────────

// Tags returns a copy of the tag list.
func (s *Store) Tags() []*entities.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTags(s.tags)
}

// UpsertTag inserts or replaces a tag by id.
func (s *Store) UpsertTag(tag *entities.Tag) {
	s.mu.Lock()
	replaced := false
	for i, t := range s.tags {
		if t.ID == tag.ID {
			s.tags[i] = tag
			replaced = true
			break
		}
	}
	if !replaced {
		s.tags = append(s.tags, tag)
	}
	snapshot := *tag
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.TagUpserted(&snapshot)
	}
}

// RemoveTag deletes the tag and clears the reference on every task, subtask
// and habit pointing at it. Referencing entities are never deleted.
func (s *Store) RemoveTag(tagID string) bool {
	s.mu.Lock()
	removed := false
	next := s.tags[:0]
	for _, t := range s.tags {
		if t.ID == tagID {
			removed = true
			continue
		}
		next = append(next, t)
	}
	s.tags = next
	if removed {
		s.clearTagRefsLocked(tagID)
	}
	s.mu.Unlock()

	if removed && s.listener != nil {
		s.listener.TagRemoved(tagID)
	}
	return removed
}

// ApplyTagDeletion clears dangling references to a tag that no longer
// exists, without touching the tag list itself.
func (s *Store) ApplyTagDeletion(tagID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearTagRefsLocked(tagID)
}

func (s *Store) clearTagRefsLocked(tagID string) {
	for _, bucket := range s.daily {
		for _, t := range bucket {
			if t.Tag == tagID {
				t.Tag = ""
			}
			for _, st := range t.Subtasks {
				if st.Tag == tagID {
					st.Tag = ""
				}
			}
		}
	}
	for _, h := range s.habits {
		if h.Tag == tagID {
			h.Tag = ""
		}
	}
}

// SetTags replaces the tag list wholesale without emitting change events.
func (s *Store) SetTags(tags []*entities.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = cloneTags(tags)
}

// ─── Habits ──────────────────────────────────────────────────────────────────

// Habits returns a copy of the habit list.
func (s *Store) Habits() []*entities.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneHabits(s.habits)
}

// FindHabit returns a copy of the habit with the given id, or nil.
func (s *Store) FindHabit(habitID string) *entities.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.habits {
		if h.ID == habitID {
			return h.Clone()
		}
	}
	return nil
}

// UpsertHabit inserts or replaces a habit by id.
func (s *Store) UpsertHabit(habit *entities.Habit) {
	if habit.CompletedDates == nil {
		habit.CompletedDates = []string{}
	}
	s.mu.Lock()
	replaced := false
	for i, h := range s.habits {
		if h.ID == habit.ID {
			s.habits[i] = habit
			replaced = true
			break
		}
	}
	if !replaced {
		s.habits = append(s.habits, habit)
	}
	snapshot := habit.Clone()
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.HabitUpserted(snapshot)
	}
}

// RemoveHabit deletes the habit with the given id.
func (s *Store) RemoveHabit(habitID string) bool {
	s.mu.Lock()
	removed := false
	next := s.habits[:0]
	for _, h := range s.habits {
		if h.ID == habitID {
			removed = true
			continue
		}
		next = append(next, h)
	}
	s.habits = next
	s.mu.Unlock()

	if removed && s.listener != nil {
		s.listener.HabitRemoved(habitID)
	}
	return removed
}

// ToggleHabitDate flips the habit's completion for the given date and
// returns the updated habit, or nil when the habit is unknown.
func (s *Store) ToggleHabitDate(habitID, dateKey string) *entities.Habit {
	s.mu.Lock()
	var toggled *entities.Habit
	for _, h := range s.habits {
		if h.ID != habitID {
			continue
		}
		if h.CompletedOn(dateKey) {
			h.UnmarkCompleted(dateKey)
		} else {
			h.MarkCompleted(dateKey)
		}
		toggled = h.Clone()
		break
	}
	s.mu.Unlock()

	if toggled != nil && s.listener != nil {
		s.listener.HabitUpserted(toggled.Clone())
	}
	return toggled
}

// SetHabits replaces the habit list wholesale without emitting change events.
func (s *Store) SetHabits(habits []*entities.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = cloneHabits(habits)
}

// ─── Settings ────────────────────────────────────────────────────────────────

// Settings returns the current user preferences.
func (s *Store) Settings() entities.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the user preferences.
func (s *Store) SetSettings(settings entities.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// ─── Backup ──────────────────────────────────────────────────────────────────

// Export produces the persisted snapshot shape.
func (s *Store) Export() *entities.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	daily := make(map[string][]*entities.Task, len(s.daily))
	for key, bucket := range s.daily {
		daily[key] = cloneTasks(bucket)
	}
	return &entities.Snapshot{
		DailyTasks: daily,
		CustomTags: cloneTags(s.tags),
		Habits:     cloneHabits(s.habits),
		DarkMode:   s.settings.DarkMode,
		Theme:      s.settings.Theme,
		ExportDate: time.Now(),
		Version:    entities.SnapshotVersion,
	}
}

// Import replaces the entire store with the snapshot contents. Missing
// sections reset to empty. No change events are emitted.
func (s *Store) Import(snap *entities.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily = make(map[string][]*entities.Task, len(snap.DailyTasks))
	for key, bucket := range snap.DailyTasks {
		if len(bucket) == 0 {
			continue
		}
		tasks := cloneTasks(bucket)
		for _, t := range tasks {
			t.Normalize()
		}
		s.daily[key] = tasks
	}
	s.tags = cloneTags(snap.CustomTags)
	s.habits = cloneHabits(snap.Habits)
	for _, h := range s.habits {
		if h.CompletedDates == nil {
			h.CompletedDates = []string{}
		}
	}
	s.settings = entities.Settings{DarkMode: snap.DarkMode, Theme: snap.Theme}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func cloneTasks(tasks []*entities.Task) []*entities.Task {
	out := make([]*entities.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Clone())
	}
	return out
}

func cloneTags(tags []*entities.Tag) []*entities.Tag {
	out := make([]*entities.Tag, 0, len(tags))
	for _, t := range tags {
		c := *t
		out = append(out, &c)
	}
	return out
}

func cloneHabits(habits []*entities.Habit) []*entities.Habit {
	out := make([]*entities.Habit, 0, len(habits))
	for _, h := range habits {
		out = append(out, h.Clone())
	}
	return out
}

// atSameClock keeps the original time of day while moving to the target
// calendar date.
func atSameClock(orig, target time.Time) time.Time {
	return time.Date(
		target.Year(), target.Month(), target.Day(),
		orig.Hour(), orig.Minute(), orig.Second(), orig.Nanosecond(),
		orig.Location(),
	)
}
