// Package sync keeps the local store eventually consistent with a remote
// row store. Pushes are fire-and-forget; pulls run on navigation, at
// startup, and on a periodic ticker. The remote is authoritative for every
// id it knows about; local-only entities are preserved as unsynced
// creations.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// Coordinator owns all cross-call sync state: the already-pulled date set,
// the syncing-from-remote guard, and the periodic loop. One coordinator per
// process; create it, wire it as the store listener, Start it, Stop it on
// shutdown.
type Coordinator struct {
	store   *store.Store
	tasks   ports.TaskRowRepository
	habits  ports.HabitRowRepository
	tags    ports.TagRowRepository
	logger  *logger.Logger
	metrics *Metrics

	interval time.Duration
	stopChan chan struct{}

	inflight gosync.WaitGroup

	mu           gosync.Mutex
	pulledDates  map[string]struct{}
	selectedDate string
	remoteApply  bool
	running      bool
	lastPull     time.Time
	lastPullErr  string
}

// New creates a coordinator and registers it as the store's change
// listener so local mutations propagate outward.
func New(
	s *store.Store,
	tasks ports.TaskRowRepository,
	habits ports.HabitRowRepository,
	tags ports.TagRowRepository,
	log *logger.Logger,
	interval time.Duration,
) *Coordinator {
	c := &Coordinator{
		store:        s,
		tasks:        tasks,
		habits:       habits,
		tags:         tags,
		logger:       log.WithComponent("sync"),
		metrics:      NewMetrics(),
		interval:     interval,
		stopChan:     make(chan struct{}, 1),
		pulledDates:  make(map[string]struct{}),
		selectedDate: entities.DateKeyOf(time.Now()),
	}
	s.SetListener(c)
	return c
}

// Metrics exposes the sync counters for registration.
func (c *Coordinator) Metrics() *Metrics {
	return c.metrics
}

// Start runs the startup pull (metadata plus today) and launches the
// periodic loop. Safe to call once.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	go c.pullCycle("startup")
	go c.loop()
	c.logger.Infow("Sync coordinator started", "interval", c.interval.String())
}

// Stop tears down the periodic loop. In-flight pulls are not cancelled;
// their results are still applied behind the guard flag.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.stopChan <- struct{}{}
	c.logger.Infow("Sync coordinator stopped")
}

func (c *Coordinator) loop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.pullCycle("periodic")
		case <-c.stopChan:
			return
		}
	}
}

// pullCycle re-pulls metadata plus the currently selected date.
func (c *Coordinator) pullCycle(reason string) {
	start := time.Now()
	ctx := context.Background()

	c.mu.Lock()
	dateKey := c.selectedDate
	c.mu.Unlock()

	err := c.PullMeta(ctx)
	if derr := c.PullDate(ctx, dateKey); derr != nil && err == nil {
		err = derr
	}

	c.mu.Lock()
	c.lastPull = time.Now()
	if err != nil {
		c.lastPullErr = err.Error()
	} else {
		c.lastPullErr = ""
		c.pulledDates[dateKey] = struct{}{}
	}
	c.mu.Unlock()

	c.logger.LogPullCycle(reason, float64(time.Since(start).Milliseconds()), err)
}

// SelectDate records the date the user navigated to and lazily pulls it.
// Repeat navigation to an already-pulled date does not re-fetch; a failed
// pull leaves the date unmarked so the next navigation retries.
func (c *Coordinator) SelectDate(ctx context.Context, dateKey string) {
	c.mu.Lock()
	c.selectedDate = dateKey
	_, pulled := c.pulledDates[dateKey]
	c.mu.Unlock()
	if pulled {
		return
	}

	if err := c.PullDate(ctx, dateKey); err != nil {
		c.logger.WithError(err).Warnw("Pull on navigation failed", "date", dateKey)
		return
	}

	c.mu.Lock()
	c.pulledDates[dateKey] = struct{}{}
	c.mu.Unlock()
}

// PullDate fetches the remote bucket for one date and merges it into the
// store: remote rows win by id, locally-held tasks the remote does not know
// are appended after the remote set. A failed pull leaves the store
// untouched for this cycle.
func (c *Coordinator) PullDate(ctx context.Context, dateKey string) error {
	remote, err := c.tasks.QueryByDate(ctx, dateKey)
	if err != nil {
		c.metrics.PullFailures.Inc()
		return fmt.Errorf("pull tasks for %s: %w", dateKey, err)
	}
	c.metrics.Pulls.Inc()

	remoteIDs := make(map[string]struct{}, len(remote))
	for _, t := range remote {
		remoteIDs[t.ID] = struct{}{}
	}
	merged := remote
	for _, t := range c.store.TasksForDate(dateKey) {
		if _, known := remoteIDs[t.ID]; !known {
			merged = append(merged, t)
		}
	}

	c.beginRemoteApply()
	c.store.SetTasksForDate(dateKey, merged)
	c.endRemoteApply()
	return nil
}

// PullMeta fetches all remote habits and tags and merges them into the
// store under the same remote-wins-by-id policy.
func (c *Coordinator) PullMeta(ctx context.Context) error {
	remoteHabits, err := c.habits.QueryAll(ctx)
	if err != nil {
		c.metrics.PullFailures.Inc()
		return fmt.Errorf("pull habits: %w", err)
	}
	remoteTags, err := c.tags.QueryAll(ctx)
	if err != nil {
		c.metrics.PullFailures.Inc()
		return fmt.Errorf("pull tags: %w", err)
	}
	c.metrics.Pulls.Inc()

	habitIDs := make(map[string]struct{}, len(remoteHabits))
	for _, h := range remoteHabits {
		habitIDs[h.ID] = struct{}{}
	}
	mergedHabits := remoteHabits
	for _, h := range c.store.Habits() {
		if _, known := habitIDs[h.ID]; !known {
			mergedHabits = append(mergedHabits, h)
		}
	}

	tagIDs := make(map[string]struct{}, len(remoteTags))
	for _, t := range remoteTags {
		tagIDs[t.ID] = struct{}{}
	}
	mergedTags := remoteTags
	for _, t := range c.store.Tags() {
		if _, known := tagIDs[t.ID]; !known {
			mergedTags = append(mergedTags, t)
		}
	}

	c.beginRemoteApply()
	c.store.SetHabits(mergedHabits)
	c.store.SetTags(mergedTags)
	c.endRemoteApply()
	return nil
}

// Flush blocks until every in-flight push has settled. Used on shutdown
// and in tests; it does not retry failures.
func (c *Coordinator) Flush() {
	c.inflight.Wait()
}

// ForcePull immediately re-pulls metadata plus the selected date.
func (c *Coordinator) ForcePull() {
	c.pullCycle("forced")
}

// Status reports coordinator state for the sync status endpoint.
func (c *Coordinator) Status() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := map[string]interface{}{
		"running":       c.running,
		"interval":      c.interval.String(),
		"selected_date": c.selectedDate,
		"pulled_dates":  len(c.pulledDates),
	}
	if !c.lastPull.IsZero() {
		status["last_pull"] = c.lastPull
		status["time_since_last_pull"] = time.Since(c.lastPull).String()
	}
	if c.lastPullErr != "" {
		status["last_pull_error"] = c.lastPullErr
	}
	return status
}

// ─── guard flag ──────────────────────────────────────────────────────────────

func (c *Coordinator) beginRemoteApply() {
	c.mu.Lock()
	c.remoteApply = true
	c.mu.Unlock()
}

func (c *Coordinator) endRemoteApply() {
	c.mu.Lock()
	c.remoteApply = false
	c.mu.Unlock()
}

func (c *Coordinator) applyingRemote() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteApply
}

// ─── store.ChangeListener: fire-and-forget pushes ────────────────────────────

// push runs fn on its own goroutine. Failures are logged and dropped: the
// local mutation stands, no retry is scheduled, and the next edit or the
// next periodic pull reconciles. Pushes are not guaranteed to reach the
// remote in submission order; the row store's upsert-by-id semantics are
// the only safety net.
func (c *Coordinator) push(kind, id string, fn func(ctx context.Context) error) {
	if c.applyingRemote() {
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := fn(context.Background()); err != nil {
			c.metrics.PushFailures.Inc()
			c.logger.LogPushFailure(kind, id, err)
			return
		}
		c.metrics.Pushes.Inc()
	}()
}

func (c *Coordinator) TaskUpserted(dateKey string, task *entities.Task) {
	// The row store is flat, so the subtask rows ship with the parent.
	c.push("task", task.ID, func(ctx context.Context) error {
		return c.upsertTaskRows(ctx, task, dateKey)
	})
}

func (c *Coordinator) TaskMoved(task *entities.Task, fromKey, toKey string) {
	// Upsert by id moves the remote rows to the new date.
	c.push("task", task.ID, func(ctx context.Context) error {
		return c.upsertTaskRows(ctx, task, toKey)
	})
}

func (c *Coordinator) upsertTaskRows(ctx context.Context, task *entities.Task, dateKey string) error {
	if err := c.tasks.Upsert(ctx, task, dateKey); err != nil {
		return err
	}
	for _, st := range task.Subtasks {
		if err := c.tasks.Upsert(ctx, st, dateKey); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) TaskRemoved(taskID string) {
	// One cascading tombstone covering the row and everything parented to
	// it. The remote store does not know the local cascade already ran.
	c.push("task", taskID, func(ctx context.Context) error {
		return c.tasks.SoftDeleteCascade(ctx, taskID)
	})
}

func (c *Coordinator) TagUpserted(tag *entities.Tag) {
	c.push("tag", tag.ID, func(ctx context.Context) error {
		return c.tags.Upsert(ctx, tag)
	})
}

func (c *Coordinator) TagRemoved(tagID string) {
	c.push("tag", tagID, func(ctx context.Context) error {
		return c.tags.SoftDelete(ctx, tagID)
	})
}

func (c *Coordinator) HabitUpserted(habit *entities.Habit) {
	c.push("habit", habit.ID, func(ctx context.Context) error {
		return c.habits.Upsert(ctx, habit)
	})
}

func (c *Coordinator) HabitRemoved(habitID string) {
	c.push("habit", habitID, func(ctx context.Context) error {
		return c.habits.SoftDelete(ctx, habitID)
	})
}
