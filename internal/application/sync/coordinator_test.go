package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
)

// fakeTaskRepo is an in-memory TaskRowRepository double. It serves rows by
// date and records every write.
type fakeTaskRepo struct {
	mu        gosync.Mutex
	byDate    map[string][]*entities.Task
	upserts   []string
	cascades  []string
	failPulls bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{byDate: make(map[string][]*entities.Task)}
}

func (f *fakeTaskRepo) Upsert(ctx context.Context, task *entities.Task, dateKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, task.ID)
	return nil
}

func (f *fakeTaskRepo) SoftDelete(ctx context.Context, taskID string) error { return nil }

func (f *fakeTaskRepo) SoftDeleteCascade(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cascades = append(f.cascades, taskID)
	return nil
}

func (f *fakeTaskRepo) QueryByDate(ctx context.Context, dateKey string) ([]*entities.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPulls {
		return nil, errors.New("connection refused")
	}
	out := make([]*entities.Task, 0, len(f.byDate[dateKey]))
	for _, t := range f.byDate[dateKey] {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *fakeTaskRepo) upsertCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.upserts {
		if u == id {
			n++
		}
	}
	return n
}

type fakeHabitRepo struct {
	mu      gosync.Mutex
	habits  []*entities.Habit
	upserts []string
	deletes []string
}

func (f *fakeHabitRepo) Upsert(ctx context.Context, habit *entities.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, habit.ID)
	return nil
}

func (f *fakeHabitRepo) SoftDelete(ctx context.Context, habitID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, habitID)
	return nil
}

func (f *fakeHabitRepo) QueryAll(ctx context.Context) ([]*entities.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entities.Habit, 0, len(f.habits))
	for _, h := range f.habits {
		out = append(out, h.Clone())
	}
	return out, nil
}

type fakeTagRepo struct {
	mu      gosync.Mutex
	tags    []*entities.Tag
	upserts []string
	deletes []string
}

func (f *fakeTagRepo) Upsert(ctx context.Context, tag *entities.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, tag.ID)
	return nil
}

func (f *fakeTagRepo) SoftDelete(ctx context.Context, tagID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, tagID)
	return nil
}

func (f *fakeTagRepo) QueryAll(ctx context.Context) ([]*entities.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entities.Tag, 0, len(f.tags))
	for _, t := range f.tags {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func newTestCoordinator() (*Coordinator, *store.Store, *fakeTaskRepo, *fakeHabitRepo, *fakeTagRepo) {
	s := store.New()
	tasks := newFakeTaskRepo()
	habits := &fakeHabitRepo{}
	tags := &fakeTagRepo{}
	c := New(s, tasks, habits, tags, logger.NewNop(), time.Hour)
	return c, s, tasks, habits, tags
}

func day(key string) time.Time {
	d, _ := entities.ParseDateKey(key)
	return d
}

func TestPullDateRemoteWinsById(t *testing.T) {
	c, s, tasks, _, _ := newTestCoordinator()

	s.SetTasksForDate("2025-03-09", []*entities.Task{
		{ID: "shared", Title: "Stale local copy", CreatedAt: day("2025-03-09")},
		{ID: "local-only", Title: "Unsynced creation", CreatedAt: day("2025-03-09")},
	})
	tasks.byDate["2025-03-09"] = []*entities.Task{
		{ID: "shared", Title: "Fresh remote copy", Completed: true, CreatedAt: day("2025-03-09")},
		{ID: "remote-only", Title: "Created elsewhere", CreatedAt: day("2025-03-09")},
	}

	if err := c.PullDate(context.Background(), "2025-03-09"); err != nil {
		t.Fatalf("PullDate: %v", err)
	}

	bucket := s.TasksForDate("2025-03-09")
	if len(bucket) != 3 {
		t.Fatalf("bucket size = %d, want 3", len(bucket))
	}
	byID := make(map[string]*entities.Task, len(bucket))
	for _, task := range bucket {
		byID[task.ID] = task
	}
	if got := byID["shared"]; got == nil || got.Title != "Fresh remote copy" || !got.Completed {
		t.Errorf("remote did not win for shared id: %+v", got)
	}
	if byID["local-only"] == nil {
		t.Error("local-only task was dropped")
	}
	if byID["remote-only"] == nil {
		t.Error("remote-only task was not applied")
	}
}

func TestPullDoesNotTriggerPushes(t *testing.T) {
	c, _, tasks, habits, tags := newTestCoordinator()

	tasks.byDate["2025-03-09"] = []*entities.Task{
		{ID: "remote-1", Title: "Remote", CreatedAt: day("2025-03-09")},
	}
	habits.habits = []*entities.Habit{{ID: "remote-h1", Name: "Run"}}
	tags.tags = []*entities.Tag{{ID: "remote-tag", Name: "Work"}}

	if err := c.PullDate(context.Background(), "2025-03-09"); err != nil {
		t.Fatalf("PullDate: %v", err)
	}
	if err := c.PullMeta(context.Background()); err != nil {
		t.Fatalf("PullMeta: %v", err)
	}
	c.Flush()

	if len(tasks.upserts) != 0 || len(habits.upserts) != 0 || len(tags.upserts) != 0 {
		t.Errorf("pulled data boomeranged back: tasks=%v habits=%v tags=%v",
			tasks.upserts, habits.upserts, tags.upserts)
	}
}

func TestSelectDatePullsOncePerDate(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	c.SelectDate(ctx, "2025-03-09")
	c.SelectDate(ctx, "2025-03-09")
	c.SelectDate(ctx, "2025-03-10")

	// The gate is per date, so two distinct dates mean two pulls.
	if c.Status()["pulled_dates"] != 2 {
		t.Errorf("pulled_dates = %v, want 2", c.Status()["pulled_dates"])
	}
}

func TestFailedPullRetriesOnNextVisit(t *testing.T) {
	c, s, tasks, _, _ := newTestCoordinator()
	ctx := context.Background()

	tasks.failPulls = true
	c.SelectDate(ctx, "2025-03-09")
	if got := c.Status()["pulled_dates"]; got != 0 {
		t.Fatalf("failed pull marked the date: pulled_dates = %v", got)
	}

	tasks.failPulls = false
	tasks.byDate["2025-03-09"] = []*entities.Task{
		{ID: "remote-1", Title: "Remote", CreatedAt: day("2025-03-09")},
	}
	c.SelectDate(ctx, "2025-03-09")

	if got := c.Status()["pulled_dates"]; got != 1 {
		t.Errorf("retry did not mark the date: pulled_dates = %v", got)
	}
	if len(s.TasksForDate("2025-03-09")) != 1 {
		t.Error("retried pull did not apply remote data")
	}
}

func TestFailedPullLeavesStoreUntouched(t *testing.T) {
	c, s, tasks, _, _ := newTestCoordinator()

	s.SetTasksForDate("2025-03-09", []*entities.Task{
		{ID: "local-1", Title: "Keep", CreatedAt: day("2025-03-09")},
	})
	tasks.failPulls = true

	if err := c.PullDate(context.Background(), "2025-03-09"); err == nil {
		t.Fatal("PullDate should fail")
	}
	if len(s.TasksForDate("2025-03-09")) != 1 {
		t.Error("failed pull modified the store")
	}
}

func TestLocalMutationsPushToRemote(t *testing.T) {
	c, s, tasks, habits, tags := newTestCoordinator()

	parent := &entities.Task{
		ID: "p1", Title: "Parent", CreatedAt: day("2025-03-09"),
		Subtasks: []*entities.Task{{ID: "s1", Title: "Child", ParentTaskID: "p1"}},
	}
	s.UpsertTask("2025-03-09", parent)
	s.UpsertTag(&entities.Tag{ID: "tag1", Name: "Work"})
	s.UpsertHabit(&entities.Habit{ID: "h1", Name: "Run"})
	c.Flush()

	if tasks.upsertCount("p1") != 1 || tasks.upsertCount("s1") != 1 {
		t.Errorf("task upsert rows = %v, want p1 and s1", tasks.upserts)
	}
	if len(tags.upserts) != 1 || tags.upserts[0] != "tag1" {
		t.Errorf("tag upserts = %v", tags.upserts)
	}
	if len(habits.upserts) != 1 || habits.upserts[0] != "h1" {
		t.Errorf("habit upserts = %v", habits.upserts)
	}
}

func TestTaskDeletePushesSingleCascade(t *testing.T) {
	c, s, tasks, _, _ := newTestCoordinator()

	parent := &entities.Task{
		ID: "p1", Title: "Parent", CreatedAt: day("2025-03-09"),
		Subtasks: []*entities.Task{{ID: "s1", Title: "Child", ParentTaskID: "p1"}},
	}
	s.UpsertTask("2025-03-09", parent)
	s.RemoveTask("p1")
	c.Flush()

	tasks.mu.Lock()
	defer tasks.mu.Unlock()
	if len(tasks.cascades) != 1 || tasks.cascades[0] != "p1" {
		t.Errorf("cascades = %v, want exactly one for p1", tasks.cascades)
	}
}

func TestTagDeletePushesTombstoneOnly(t *testing.T) {
	c, s, tasks, _, tags := newTestCoordinator()

	task := &entities.Task{ID: "t1", Title: "Tagged", Tag: "tag1", CreatedAt: day("2025-03-09")}
	s.UpsertTask("2025-03-09", task)
	s.UpsertTag(&entities.Tag{ID: "tag1", Name: "Work"})
	c.Flush()
	before := tasks.upsertCount("t1")

	s.RemoveTag("tag1")
	c.Flush()

	tags.mu.Lock()
	deletes := append([]string(nil), tags.deletes...)
	tags.mu.Unlock()
	if len(deletes) != 1 || deletes[0] != "tag1" {
		t.Errorf("tag deletes = %v, want tag1", deletes)
	}
	// Reference clearing is local repair, not a remote write per task.
	if after := tasks.upsertCount("t1"); after != before {
		t.Errorf("tag deletion pushed task rows: %d -> %d", before, after)
	}
}

func TestStartStop(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()

	c.Start()
	if running := c.Status()["running"]; running != true {
		t.Errorf("running = %v after Start", running)
	}
	c.Stop()
	if running := c.Status()["running"]; running != false {
		t.Errorf("running = %v after Stop", running)
	}
	c.Flush()
}
