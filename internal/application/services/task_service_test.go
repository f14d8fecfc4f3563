package services

import (
	"errors"
	"testing"
	"time"

	"github.com/priospace/core/internal/application/projector"
	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

func newTaskService() (*TaskService, *store.Store) {
	s := store.New()
	return NewTaskService(s, logger.NewNop()), s
}

func TestCreateTaskDefaultsToToday(t *testing.T) {
	svc, s := newTaskService()

	task, err := svc.CreateTask(ports.CreateTaskRequest{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Title != "Buy milk" {
		t.Errorf("title not trimmed: %q", task.Title)
	}
	if task.ID == "" {
		t.Error("task id not minted")
	}

	today := entities.DateKeyOf(time.Now())
	if len(s.TasksForDate(today)) != 1 {
		t.Errorf("task not stored under today's partition %s", today)
	}
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	svc, _ := newTaskService()
	if _, err := svc.CreateTask(ports.CreateTaskRequest{Title: "   "}); !errors.Is(err, entities.ErrEmptyTitle) {
		t.Errorf("err = %v, want ErrEmptyTitle", err)
	}
}

func TestAddSubtaskExpandsParent(t *testing.T) {
	svc, s := newTaskService()
	parent, _ := svc.CreateTask(ports.CreateTaskRequest{Title: "Parent", DateKey: "2025-03-09"})

	st, err := svc.AddSubtask(parent.ID, ports.CreateSubtaskRequest{Title: "Child"})
	if err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if st.ParentTaskID != parent.ID {
		t.Errorf("subtask parent = %q", st.ParentTaskID)
	}

	stored := s.TasksForDate("2025-03-09")[0]
	if !stored.SubtasksExpanded {
		t.Error("adding a subtask should expand the parent")
	}
	if len(stored.Subtasks) != 1 {
		t.Fatalf("subtask not attached: %+v", stored)
	}

	// Depth is capped at one.
	if _, err := svc.AddSubtask(st.ID, ports.CreateSubtaskRequest{Title: "Grandchild"}); err == nil {
		t.Error("subtask of a subtask should be rejected")
	}
}

func TestToggleTaskRoutesProjectionToHabit(t *testing.T) {
	svc, s := newTaskService()
	s.UpsertHabit(&entities.Habit{ID: "h1", Name: "Run"})

	id := projector.ProjectionID("h1", "2025-03-09")
	task, err := svc.ToggleTask(id)
	if err != nil {
		t.Fatalf("ToggleTask(projection): %v", err)
	}
	if !task.IsHabit || !task.Completed {
		t.Errorf("projection after toggle = %+v", task)
	}
	if h := s.FindHabit("h1"); !h.CompletedOn("2025-03-09") {
		t.Error("toggle did not reach the habit")
	}
	// Nothing may be persisted under the projection's id.
	if found, _ := s.LocateTask(id); found != nil {
		t.Error("projection was stored as a task")
	}

	if _, err := svc.ToggleTask(projector.ProjectionID("missing", "2025-03-09")); !errors.Is(err, entities.ErrHabitNotFound) {
		t.Errorf("err = %v, want ErrHabitNotFound", err)
	}
}

func TestUpdateTaskMovesPartition(t *testing.T) {
	svc, s := newTaskService()
	task, _ := svc.CreateTask(ports.CreateTaskRequest{Title: "Movable", DateKey: "2025-03-09"})

	newDate := "2025-03-12"
	updated, err := svc.UpdateTask(task.ID, ports.UpdateTaskRequest{DateKey: &newDate})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got := entities.DateKeyOf(updated.CreatedAt); got != newDate {
		t.Errorf("moved day = %s, want %s", got, newDate)
	}
	if len(s.TasksForDate("2025-03-09")) != 0 {
		t.Error("task still in old partition")
	}
	if len(s.TasksForDate(newDate)) != 1 {
		t.Error("task missing from new partition")
	}
}

func TestTransferTaskRejectsSubtasks(t *testing.T) {
	svc, _ := newTaskService()
	parent, _ := svc.CreateTask(ports.CreateTaskRequest{Title: "Parent", DateKey: "2025-03-09"})
	st, _ := svc.AddSubtask(parent.ID, ports.CreateSubtaskRequest{Title: "Child"})

	if _, err := svc.TransferTask(st.ID, ports.TransferTaskRequest{TargetDate: "2025-03-10"}); err == nil {
		t.Error("transferring a subtask should fail")
	}
}

func TestAddTimeAccumulates(t *testing.T) {
	svc, _ := newTaskService()
	task, _ := svc.CreateTask(ports.CreateTaskRequest{Title: "Timed", DateKey: "2025-03-09"})

	if _, err := svc.AddTime(task.ID, ports.AddTimeRequest{Seconds: 90}); err != nil {
		t.Fatalf("AddTime: %v", err)
	}
	updated, err := svc.AddTime(task.ID, ports.AddTimeRequest{Seconds: 30})
	if err != nil {
		t.Fatalf("AddTime: %v", err)
	}
	if updated.TimeSpent != 120 {
		t.Errorf("TimeSpent = %d, want 120", updated.TimeSpent)
	}

	focused, err := svc.AddFocusTime(task.ID, ports.AddTimeRequest{Seconds: 60})
	if err != nil {
		t.Fatalf("AddFocusTime: %v", err)
	}
	if focused.FocusTime != 60 || focused.TimeSpent != 120 {
		t.Errorf("focus/time = %d/%d, want 60/120", focused.FocusTime, focused.TimeSpent)
	}
}

func TestTasksForDateIncludesProjections(t *testing.T) {
	svc, s := newTaskService()
	_, _ = svc.CreateTask(ports.CreateTaskRequest{Title: "Stored", DateKey: "2025-03-09"})
	s.UpsertHabit(&entities.Habit{ID: "h1", Name: "Run"})

	tasks, err := svc.TasksForDate("2025-03-09")
	if err != nil {
		t.Fatalf("TasksForDate: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("task count = %d, want stored task plus projection", len(tasks))
	}
	if !tasks[1].IsHabit {
		t.Error("projection should follow stored tasks")
	}
}

func TestDeleteTaskRejectsProjectionIDs(t *testing.T) {
	svc, s := newTaskService()
	s.UpsertHabit(&entities.Habit{ID: "h1", Name: "Run"})

	err := svc.DeleteTask(projector.ProjectionID("h1", "2025-03-09"))
	if !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
	if s.FindHabit("h1") == nil {
		t.Error("habit must survive projection delete attempts")
	}
}
