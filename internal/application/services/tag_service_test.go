package services

import (
	"errors"
	"testing"

	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

func TestCreateTagRejectsDuplicateNames(t *testing.T) {
	svc := NewTagService(store.New(), logger.NewNop())

	tag, err := svc.CreateTag(ports.CreateTagRequest{Name: "Work", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.ID == "" {
		t.Error("tag id not minted")
	}

	if _, err := svc.CreateTag(ports.CreateTagRequest{Name: " work "}); err == nil {
		t.Error("case-insensitive duplicate should be rejected")
	}
}

func TestCreateTagDefaultsColor(t *testing.T) {
	svc := NewTagService(store.New(), logger.NewNop())
	tag, err := svc.CreateTag(ports.CreateTagRequest{Name: "Home"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.Color == "" {
		t.Error("missing color should fall back to a default")
	}
}

func TestUpdateTagUnknownID(t *testing.T) {
	svc := NewTagService(store.New(), logger.NewNop())
	name := "Renamed"
	if _, err := svc.UpdateTag("missing", ports.UpdateTagRequest{Name: &name}); !errors.Is(err, entities.ErrTagNotFound) {
		t.Errorf("err = %v, want ErrTagNotFound", err)
	}
}

func TestDeleteTagClearsTaskReferences(t *testing.T) {
	s := store.New()
	tagSvc := NewTagService(s, logger.NewNop())
	taskSvc := NewTaskService(s, logger.NewNop())

	tag, _ := tagSvc.CreateTag(ports.CreateTagRequest{Name: "Work"})
	task, _ := taskSvc.CreateTask(ports.CreateTaskRequest{Title: "Tagged", TagID: tag.ID, DateKey: "2025-03-09"})

	if err := tagSvc.DeleteTag(tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	stored, _ := s.LocateTask(task.ID)
	if stored == nil {
		t.Fatal("tag deletion must never delete tasks")
	}
	if stored.Tag != "" {
		t.Errorf("task still references deleted tag: %q", stored.Tag)
	}
}

func TestHabitServiceToggle(t *testing.T) {
	s := store.New()
	svc := NewHabitService(s, logger.NewNop())

	habit, err := svc.CreateHabit(ports.CreateHabitRequest{Name: "Run"})
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}
	if habit.CompletedDates == nil || len(habit.CompletedDates) != 0 {
		t.Errorf("new habit completions = %v, want empty set", habit.CompletedDates)
	}

	toggled, err := svc.ToggleHabit(habit.ID, ports.ToggleHabitRequest{DateKey: "2025-03-09"})
	if err != nil {
		t.Fatalf("ToggleHabit: %v", err)
	}
	if !toggled.CompletedOn("2025-03-09") {
		t.Error("toggle did not mark the date")
	}

	if _, err := svc.ToggleHabit("missing", ports.ToggleHabitRequest{DateKey: "2025-03-09"}); !errors.Is(err, entities.ErrHabitNotFound) {
		t.Errorf("err = %v, want ErrHabitNotFound", err)
	}
}
