// Package merge folds a foreign snapshot into the local store. Ids minted
// on another device are coincidence, not identity, so matching runs on
// natural keys: tag and habit names, task titles within a date bucket.
// Merging the same snapshot twice performs zero new insertions.
package merge

import (
	"github.com/google/uuid"

	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
)

// Engine merges share payloads into a store. Snapshots flow into the local
// store only; nothing here ever reaches a remote backend.
type Engine struct {
	store  *store.Store
	logger *logger.Logger
}

// Options tunes one merge run. ConfirmSettings is consulted before any
// settings change is applied; a nil callback rejects the change.
type Options struct {
	ConfirmSettings func(changes []string) bool
}

// Report counts what a merge did.
type Report struct {
	NewTasks        int      `json:"new_tasks"`
	NewSubtasks     int      `json:"new_subtasks"`
	NewTags         int      `json:"new_tags"`
	NewHabits       int      `json:"new_habits"`
	UpdatedTasks    int      `json:"updated_tasks"`
	UpdatedSettings []string `json:"updated_settings"`
}

// Empty reports whether the merge changed nothing.
func (r *Report) Empty() bool {
	return r.NewTasks == 0 && r.NewSubtasks == 0 && r.NewTags == 0 &&
		r.NewHabits == 0 && r.UpdatedTasks == 0 && len(r.UpdatedSettings) == 0
}

// New creates a merge engine.
func New(s *store.Store, log *logger.Logger) *Engine {
	return &Engine{store: s, logger: log.WithComponent("merge")}
}

// Merge applies the payload in dependency order: tags first (tasks and
// habits reference them), then tasks per date bucket, then habits, then
// settings. Absent payload keys skip their phase; a malformed snapshot is
// never a hard failure.
func (e *Engine) Merge(payload *entities.SharePayload, opts Options) *Report {
	report := &Report{UpdatedSettings: []string{}}
	if payload == nil {
		return report
	}

	tagMapping := e.mergeTags(payload.CustomTags, report)
	e.mergeTasks(payload.DailyTasks, tagMapping, report)
	e.mergeHabits(payload.Habits, tagMapping, report)
	e.mergeSettings(payload, opts, report)

	e.logger.LogMergeReport(report.NewTasks, report.NewSubtasks, report.NewTags, report.NewHabits, report.UpdatedTasks)
	return report
}

// mergeTags matches incoming tags against local ones by case-insensitive
// name and returns the oldID→localID translation table used by the later
// phases.
func (e *Engine) mergeTags(incoming []*entities.Tag, report *Report) map[string]string {
	mapping := make(map[string]string, len(incoming))
	if len(incoming) == 0 {
		return mapping
	}

	local := e.store.Tags()
	byName := make(map[string]*entities.Tag, len(local))
	for _, t := range local {
		byName[t.NormalizedName()] = t
	}

	for _, in := range incoming {
		if existing, ok := byName[in.NormalizedName()]; ok {
			mapping[in.ID] = existing.ID
			continue
		}
		minted := &entities.Tag{
			ID:    uuid.NewString(),
			Name:  in.Name,
			Color: in.Color,
		}
		mapping[in.ID] = minted.ID
		local = append(local, minted)
		byName[minted.NormalizedName()] = minted
		report.NewTags++
	}

	e.store.SetTags(local)
	return mapping
}

// translateTag resolves a foreign tag reference through the translation
// table. Unresolved references pass through untouched: both sides converge
// once the tag itself arrives.
func translateTag(tagID string, mapping map[string]string) string {
	if mapped, ok := mapping[tagID]; ok {
		return mapped
	}
	return tagID
}

func (e *Engine) mergeTasks(incoming map[string][]*entities.Task, mapping map[string]string, report *Report) {
	for dateKey, bucket := range incoming {
		if !entities.IsDateKey(dateKey) {
			e.logger.Warnw("Skipping malformed date bucket", "date", dateKey)
			continue
		}
		e.mergeTaskBucket(dateKey, bucket, mapping, report)
	}
}

// mergeTaskBucket merges one date bucket independently. Tasks match by
// case-insensitive trimmed title; habit projections never take part.
func (e *Engine) mergeTaskBucket(dateKey string, incoming []*entities.Task, mapping map[string]string, report *Report) {
	existing := e.store.TasksForDate(dateKey)

	for _, in := range incoming {
		if in == nil || in.IsHabit {
			continue
		}
		task := in.Clone()
		task.Normalize()
		task.Tag = translateTag(task.Tag, mapping)
		for _, st := range task.Subtasks {
			st.Tag = translateTag(st.Tag, mapping)
		}

		match := findByTitle(existing, task.NormalizedTitle())
		if match == nil {
			minted := task.Clone()
			minted.ID = uuid.NewString()
			minted.ParentTaskID = ""
			for _, st := range minted.Subtasks {
				st.ID = uuid.NewString()
				st.ParentTaskID = minted.ID
			}
			existing = append(existing, minted)
			report.NewTasks++
			report.NewSubtasks += len(minted.Subtasks)
			continue
		}

		updated := false
		if match.Completed != task.Completed {
			match.Completed = task.Completed
			updated = true
		}
		for _, inSub := range task.Subtasks {
			existingSub := findSubByTitle(match.Subtasks, inSub.NormalizedTitle())
			if existingSub != nil {
				if existingSub.Completed != inSub.Completed {
					existingSub.Completed = inSub.Completed
					updated = true
				}
				continue
			}
			minted := *inSub
			minted.ID = uuid.NewString()
			minted.ParentTaskID = match.ID
			minted.Subtasks = []*entities.Task{}
			match.Subtasks = append(match.Subtasks, &minted)
			report.NewSubtasks++
			updated = true
		}
		if updated {
			report.UpdatedTasks++
		}
	}

	e.store.SetTasksForDate(dateKey, existing)
}

func (e *Engine) mergeHabits(incoming []*entities.Habit, mapping map[string]string, report *Report) {
	if len(incoming) == 0 {
		return
	}

	local := e.store.Habits()
	byName := make(map[string]*entities.Habit, len(local))
	for _, h := range local {
		byName[h.NormalizedName()] = h
	}

	for _, in := range incoming {
		if in == nil {
			continue
		}
		translated := translateTag(in.Tag, mapping)

		if existing, ok := byName[in.NormalizedName()]; ok {
			existing.UnionCompletedDates(in.CompletedDates)
			existing.Tag = translated
			continue
		}

		minted := in.Clone()
		minted.ID = uuid.NewString()
		minted.Tag = translated
		if minted.CompletedDates == nil {
			minted.CompletedDates = []string{}
		}
		local = append(local, minted)
		byName[minted.NormalizedName()] = minted
		report.NewHabits++
	}

	e.store.SetHabits(local)
}

// mergeSettings surfaces differing preferences as a proposed change; only
// an explicit confirmation applies them. This is the one step in the
// engine with a user-facing side effect.
func (e *Engine) mergeSettings(payload *entities.SharePayload, opts Options, report *Report) {
	current := e.store.Settings()

	var changes []string
	if payload.DarkMode != nil && *payload.DarkMode != current.DarkMode {
		changes = append(changes, "dark mode")
	}
	if payload.Theme != nil && *payload.Theme != "" && *payload.Theme != current.Theme {
		changes = append(changes, "theme")
	}
	if len(changes) == 0 {
		return
	}
	if opts.ConfirmSettings == nil || !opts.ConfirmSettings(changes) {
		return
	}

	if payload.DarkMode != nil && *payload.DarkMode != current.DarkMode {
		current.DarkMode = *payload.DarkMode
		report.UpdatedSettings = append(report.UpdatedSettings, "dark mode")
	}
	if payload.Theme != nil && *payload.Theme != "" && *payload.Theme != current.Theme {
		current.Theme = *payload.Theme
		report.UpdatedSettings = append(report.UpdatedSettings, "theme")
	}
	e.store.SetSettings(current)
}

func findByTitle(tasks []*entities.Task, normalized string) *entities.Task {
	for _, t := range tasks {
		if !t.IsHabit && t.NormalizedTitle() == normalized {
			return t
		}
	}
	return nil
}

func findSubByTitle(subtasks []*entities.Task, normalized string) *entities.Task {
	for _, st := range subtasks {
		if st.NormalizedTitle() == normalized {
			return st
		}
	}
	return nil
}
