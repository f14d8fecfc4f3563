package entities

import (
	"testing"
	"time"
)

func TestDateKeyRoundTrip(t *testing.T) {
	day := time.Date(2025, 3, 9, 14, 30, 0, 0, time.Local)
	key := DateKeyOf(day)
	if key != "2025-03-09" {
		t.Fatalf("DateKeyOf = %q, want 2025-03-09", key)
	}

	parsed, err := ParseDateKey(key)
	if err != nil {
		t.Fatalf("ParseDateKey(%q): %v", key, err)
	}
	if parsed.Year() != 2025 || parsed.Month() != time.March || parsed.Day() != 9 {
		t.Errorf("parsed date = %v, want 2025-03-09", parsed)
	}
}

func TestIsDateKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "2025-3-9", "09-03-2025", "2025-03-09T00:00:00Z", "not-a-date", "2025-13-01"} {
		if IsDateKey(key) {
			t.Errorf("IsDateKey(%q) = true, want false", key)
		}
	}
	if !IsDateKey("2025-03-09") {
		t.Error("IsDateKey(2025-03-09) = false, want true")
	}
}

func TestTaskNormalize(t *testing.T) {
	parent := &Task{
		ID:        "p1",
		Title:     "Parent",
		TimeSpent: -30,
		FocusTime: -5,
		CreatedAt: time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
		Subtasks: []*Task{
			{ID: "s1", Title: "Child", ParentTaskID: "wrong", Subtasks: []*Task{{ID: "nested"}}},
		},
	}
	parent.Normalize()

	if parent.TimeSpent != 0 || parent.FocusTime != 0 {
		t.Errorf("negative counters not clamped: %d/%d", parent.TimeSpent, parent.FocusTime)
	}
	st := parent.Subtasks[0]
	if st.ParentTaskID != "p1" {
		t.Errorf("subtask parent = %q, want p1", st.ParentTaskID)
	}
	if len(st.Subtasks) != 0 {
		t.Errorf("nested subtasks survived, depth must be one")
	}
	if !st.CreatedAt.Equal(parent.CreatedAt) {
		t.Errorf("zero subtask CreatedAt should inherit parent's")
	}
}

func TestTaskNormalizedTitle(t *testing.T) {
	a := &Task{Title: "  Buy Milk "}
	b := &Task{Title: "buy milk"}
	if a.NormalizedTitle() != b.NormalizedTitle() {
		t.Errorf("titles should match: %q vs %q", a.NormalizedTitle(), b.NormalizedTitle())
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	orig := &Task{
		ID:       "p1",
		Title:    "Parent",
		Subtasks: []*Task{{ID: "s1", Title: "Child", ParentTaskID: "p1"}},
	}
	c := orig.Clone()
	c.Title = "Changed"
	c.Subtasks[0].Title = "Changed too"

	if orig.Title != "Parent" || orig.Subtasks[0].Title != "Child" {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestHabitToggleHelpers(t *testing.T) {
	h := &Habit{ID: "h1", Name: "Run"}

	h.MarkCompleted("2025-03-09")
	h.MarkCompleted("2025-03-09")
	if len(h.CompletedDates) != 1 {
		t.Fatalf("MarkCompleted is not idempotent: %v", h.CompletedDates)
	}
	if !h.CompletedOn("2025-03-09") {
		t.Error("CompletedOn missed a marked date")
	}

	h.UnmarkCompleted("2025-03-09")
	h.UnmarkCompleted("2025-03-09")
	if h.CompletedOn("2025-03-09") {
		t.Error("UnmarkCompleted left the date behind")
	}
}

func TestHabitUnionCompletedDates(t *testing.T) {
	h := &Habit{ID: "h1", Name: "Run", CompletedDates: []string{"2025-03-09", "2025-03-11"}}
	h.UnionCompletedDates([]string{"2025-03-10", "2025-03-09"})

	want := []string{"2025-03-09", "2025-03-10", "2025-03-11"}
	if len(h.CompletedDates) != len(want) {
		t.Fatalf("union = %v, want %v", h.CompletedDates, want)
	}
	for i, d := range want {
		if h.CompletedDates[i] != d {
			t.Fatalf("union = %v, want %v", h.CompletedDates, want)
		}
	}

	// Union never shrinks the set.
	h.UnionCompletedDates(nil)
	if len(h.CompletedDates) != 3 {
		t.Errorf("union with empty input shrank the set: %v", h.CompletedDates)
	}
}

func TestTagNormalizedName(t *testing.T) {
	a := &Tag{Name: " Work "}
	b := &Tag{Name: "work"}
	if a.NormalizedName() != b.NormalizedName() {
		t.Errorf("names should match: %q vs %q", a.NormalizedName(), b.NormalizedName())
	}
}
