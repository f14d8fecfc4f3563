package projector

import (
	"testing"
	"time"

	"github.com/priospace/core/internal/domain/entities"
)

func TestProjectionIDRoundTrip(t *testing.T) {
	// Habit ids are opaque and may themselves contain hyphens.
	for _, habitID := range []string{"h1", "6b9b1a2e-6f3c-4e5d-9a7b-1c2d3e4f5a6b", "morning-run"} {
		id := ProjectionID(habitID, "2025-03-09")
		gotHabit, gotDate, ok := ParseProjectionID(id)
		if !ok {
			t.Fatalf("ParseProjectionID(%q) not ok", id)
		}
		if gotHabit != habitID || gotDate != "2025-03-09" {
			t.Errorf("ParseProjectionID(%q) = %q, %q", id, gotHabit, gotDate)
		}
	}
}

func TestParseProjectionIDRejectsNonProjections(t *testing.T) {
	for _, id := range []string{
		"",
		"t1",
		"habit-",
		"habit-h1",
		"habit-h1-not-a-date",
		"habit-h12025-03-09",
		"habitt-h1-2025-03-09",
	} {
		if _, _, ok := ParseProjectionID(id); ok {
			t.Errorf("ParseProjectionID(%q) = ok, want not ok", id)
		}
	}
}

func TestProjectBuildsVirtualTasks(t *testing.T) {
	habits := []*entities.Habit{
		{ID: "h1", Name: "Run", Tag: "tag1", CompletedDates: []string{"2025-03-09"}},
		{ID: "h2", Name: "Read"},
	}
	date := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	tasks := Project(habits, date)
	if len(tasks) != 2 {
		t.Fatalf("projected %d tasks, want 2", len(tasks))
	}

	run := tasks[0]
	if run.ID != ProjectionID("h1", "2025-03-09") {
		t.Errorf("projection id = %q", run.ID)
	}
	if !run.IsHabit || run.HabitID != "h1" {
		t.Errorf("projection missing habit linkage: %+v", run)
	}
	if !run.Completed {
		t.Error("completed date not reflected in projection")
	}
	if run.Tag != "tag1" {
		t.Errorf("projection tag = %q, want tag1", run.Tag)
	}

	if tasks[1].Completed {
		t.Error("h2 has no completion for the date")
	}
}

func TestProjectHasNoSideEffects(t *testing.T) {
	habits := []*entities.Habit{{ID: "h1", Name: "Run"}}
	date := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	first := Project(habits, date)
	first[0].Completed = true
	first[0].Title = "Mutated"

	second := Project(habits, date)
	if second[0].Completed || second[0].Title != "Run" {
		t.Error("projection is not recomputed from scratch")
	}
	if habits[0].Name != "Run" {
		t.Error("projection mutated the habit")
	}
}
