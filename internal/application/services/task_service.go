package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/priospace/core/internal/application/projector"
	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// TaskService handles task operations against the local store. Remote
// replication rides on the store's change listener; services never talk
// to a backend directly.
type TaskService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(s *store.Store, logger *logger.Logger) *TaskService {
	return &TaskService{store: s, logger: logger}
}

// TasksForDate returns the stored tasks for a date followed by the habit
// projections for that date.
func (s *TaskService) TasksForDate(dateKey string) ([]*entities.Task, error) {
	date, err := entities.ParseDateKey(dateKey)
	if err != nil {
		return nil, err
	}
	tasks := s.store.TasksForDate(dateKey)
	tasks = append(tasks, projector.Project(s.store.Habits(), date)...)
	return tasks, nil
}

// CreateTask creates a top-level task. An absent date defaults to today.
func (s *TaskService) CreateTask(req ports.CreateTaskRequest) (*entities.Task, error) {
	dateKey := req.DateKey
	if dateKey == "" {
		dateKey = entities.DateKeyOf(time.Now())
	}
	if !entities.IsDateKey(dateKey) {
		return nil, entities.ErrBadDateKey
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, entities.ErrEmptyTitle
	}

	task := &entities.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Tag:       req.TagID,
		CreatedAt: time.Now(),
		Subtasks:  []*entities.Task{},
	}
	task.Normalize()

	s.store.UpsertTask(dateKey, task)
	s.logger.Info("Task created", "task_id", task.ID, "date", dateKey)
	return task, nil
}

// AddSubtask attaches a subtask to an existing task and expands the
// parent's subtask list so the addition is visible.
func (s *TaskService) AddSubtask(parentID string, req ports.CreateSubtaskRequest) (*entities.Task, error) {
	parent, dateKey := s.store.LocateTask(parentID)
	if parent == nil {
		return nil, entities.ErrTaskNotFound
	}
	if parent.IsSubtask() {
		return nil, fmt.Errorf("task %s is a subtask and cannot have children", parentID)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, entities.ErrEmptyTitle
	}

	subtask := &entities.Task{
		ID:           uuid.NewString(),
		Title:        title,
		Tag:          req.TagID,
		CreatedAt:    time.Now(),
		ParentTaskID: parent.ID,
		Subtasks:     []*entities.Task{},
	}

	parent.Subtasks = append(parent.Subtasks, subtask)
	parent.SubtasksExpanded = true
	s.store.UpsertTask(dateKey, parent)
	s.logger.Info("Subtask added", "task_id", subtask.ID, "parent_id", parent.ID)
	return subtask, nil
}

// ToggleTask flips a task's completion. Habit projection ids are routed to
// the underlying habit; the returned task is then a fresh projection.
func (s *TaskService) ToggleTask(id string) (*entities.Task, error) {
	if habitID, dateKey, ok := projector.ParseProjectionID(id); ok {
		habit := s.store.ToggleHabitDate(habitID, dateKey)
		if habit == nil {
			return nil, entities.ErrHabitNotFound
		}
		date, _ := entities.ParseDateKey(dateKey)
		return projector.Project([]*entities.Habit{habit}, date)[0], nil
	}

	task, dateKey := s.store.LocateTask(id)
	if task == nil {
		return nil, entities.ErrTaskNotFound
	}
	task.Completed = !task.Completed
	s.store.UpsertTask(dateKey, task)
	return task, nil
}

// UpdateTask patches task fields. A changed date moves the task, with its
// subtasks, to the new partition.
func (s *TaskService) UpdateTask(id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, dateKey := s.store.LocateTask(id)
	if task == nil {
		return nil, entities.ErrTaskNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, entities.ErrEmptyTitle
		}
		task.Title = title
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.TagID != nil {
		task.Tag = *req.TagID
	}
	if req.SubtasksExpanded != nil {
		task.SubtasksExpanded = *req.SubtasksExpanded
	}
	task.Normalize()
	s.store.UpsertTask(dateKey, task)

	if req.DateKey != nil && *req.DateKey != dateKey {
		if !entities.IsDateKey(*req.DateKey) {
			return nil, entities.ErrBadDateKey
		}
		moved := s.store.MoveTask(id, dateKey, *req.DateKey)
		if moved != nil {
			task = moved
		}
	}
	return task, nil
}

// TransferTask moves a task to another calendar date.
func (s *TaskService) TransferTask(id string, req ports.TransferTaskRequest) (*entities.Task, error) {
	task, dateKey := s.store.LocateTask(id)
	if task == nil {
		return nil, entities.ErrTaskNotFound
	}
	if task.IsSubtask() {
		return nil, fmt.Errorf("task %s is a subtask and moves with its parent", id)
	}
	if dateKey == req.TargetDate {
		return task, nil
	}
	moved := s.store.MoveTask(id, dateKey, req.TargetDate)
	if moved == nil {
		return nil, entities.ErrTaskNotFound
	}
	s.logger.Info("Task transferred", "task_id", id, "from", dateKey, "to", req.TargetDate)
	return moved, nil
}

// DeleteTask removes a task; deleting a parent removes its subtasks.
func (s *TaskService) DeleteTask(id string) error {
	if projector.IsProjectionID(id) {
		return entities.ErrTaskNotFound
	}
	if !s.store.RemoveTask(id) {
		return entities.ErrTaskNotFound
	}
	s.logger.Info("Task deleted", "task_id", id)
	return nil
}

// AddTime adds elapsed seconds to a task's accumulated time.
func (s *TaskService) AddTime(id string, req ports.AddTimeRequest) (*entities.Task, error) {
	return s.addSeconds(id, req.Seconds, false)
}

// AddFocusTime adds focus-session seconds to a task.
func (s *TaskService) AddFocusTime(id string, req ports.AddTimeRequest) (*entities.Task, error) {
	return s.addSeconds(id, req.Seconds, true)
}

func (s *TaskService) addSeconds(id string, seconds int, focus bool) (*entities.Task, error) {
	task, dateKey := s.store.LocateTask(id)
	if task == nil {
		return nil, entities.ErrTaskNotFound
	}
	if focus {
		task.FocusTime += seconds
	} else {
		task.TimeSpent += seconds
	}
	s.store.UpsertTask(dateKey, task)
	return task, nil
}
