// Package engine implements the task lifecycle engine: validation, identity,
// CRUD, filtering, analytics, and the observe/orient/decide/act loop.
//
// The engine is the sole writer of task state within its process. Every
// mutation persists through the storage adapter before the in-memory
// collection is swapped, so a storage failure never leaves memory and disk
// inconsistent. Two processes sharing one document can still clobber each
// other's writes; there is no cross-process lock. That limitation is
// deliberate and documented in the store package.
package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/minderhq/minder/events"
	"github.com/minderhq/minder/store"
	"github.com/minderhq/minder/task"
)

// Engine owns the in-memory task collection for its process lifetime.
type Engine struct {
	mu     sync.Mutex
	store  *store.FileStore
	bus    *events.Bus
	logger *slog.Logger
	tasks  []*task.Task

	now   func() time.Time // swappable in tests
	actFn func(Action)
}

// New initializes the storage adapter, loads the current collection, and
// returns a ready engine.
func New(st *store.FileStore, bus *events.Bus, logger *slog.Logger) (*Engine, error) {
	if err := st.Initialize(); err != nil {
		return nil, err
	}
	tasks, err := st.LoadAll()
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:  st,
		bus:    bus,
		logger: logger,
		tasks:  tasks,
		now:    time.Now,
	}, nil
}

// SetActionHook installs the side-effect callback invoked by Act. Without a
// hook, actions are logged and otherwise ignored.
func (e *Engine) SetActionHook(fn func(Action)) { e.actFn = fn }

// Create validates the input, generates an ID, persists, and emits
// task:created. On failure neither memory nor disk is modified.
func (e *Engine) Create(in task.Input) (*task.Task, error) {
	now := e.now()
	if err := task.ValidateInput(in, now); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	t := &task.Task{
		ID: task.NewID(title, now),
		Schema: task.Schema{
			Title:             title,
			Description:       in.Description,
			Tags:              in.Tags,
			AffectedFiles:     in.AffectedFiles,
			EstimatedDuration: in.EstimatedDuration,
			Dependencies:      in.Dependencies,
			AssignedAgent:     in.AssignedAgent,
			ExecutionPath:     in.ExecutionPath,
			DueDate:           in.DueDate,
		},
		Status:          task.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		ReminderEnabled: in.ReminderEnabled,
		ReminderTime:    in.ReminderTime,
		Metadata: task.Metadata{
			Version:      1,
			CreatedBy:    task.CreatedBy,
			LastModified: now,
		},
	}

	e.mu.Lock()
	next := append(append([]*task.Task(nil), e.tasks...), t)
	if err := e.store.SaveAll(next); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.tasks = next
	e.mu.Unlock()

	e.logger.Info("task created", slog.String("id", t.ID), slog.String("title", title))
	e.bus.Emit(events.Event{Name: events.TaskCreated, Task: t.Clone()})
	return t.Clone(), nil
}

// Update applies a patch to the task with the given ID. It bumps updatedAt
// and metadata.version, stamps completedAt exactly on the first transition
// into COMPLETED, persists, then emits task:updated and, when the COMPLETED
// transition just occurred, task:completed.
func (e *Engine) Update(id string, patch task.Update) (*task.Task, error) {
	return e.update(id, patch, events.CompletedManually)
}

func (e *Engine) update(id string, patch task.Update, method events.CompletionMethod) (*task.Task, error) {
	if err := task.ValidateUpdate(patch); err != nil {
		return nil, err
	}
	now := e.now()

	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil, &task.NotFoundError{Entity: "task", ID: id}
	}

	clone := e.tasks[idx].Clone()
	completedNow := applyPatch(clone, patch, now)
	clone.UpdatedAt = now
	clone.Metadata.Version++
	clone.Metadata.LastModified = now

	next := append([]*task.Task(nil), e.tasks...)
	next[idx] = clone
	if err := e.store.SaveAll(next); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.tasks = next
	e.mu.Unlock()

	result := clone.Clone()
	e.bus.Emit(events.Event{Name: events.TaskUpdated, Task: result})
	if completedNow {
		e.bus.Emit(events.Event{
			Name:    events.TaskCompleted,
			Task:    result,
			Elapsed: clone.CompletedAt.Sub(clone.CreatedAt),
			Method:  method,
		})
	}
	return clone.Clone(), nil
}

// applyPatch copies the present fields of patch onto t. It returns true when
// this patch performed the first transition into COMPLETED.
func applyPatch(t *task.Task, patch task.Update, now time.Time) (completedNow bool) {
	// Schema fields.
	if patch.Title != nil {
		t.Schema.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Schema.Description = *patch.Description
	}
	if patch.Tags != nil {
		t.Schema.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.AffectedFiles != nil {
		t.Schema.AffectedFiles = append([]string(nil), (*patch.AffectedFiles)...)
	}
	if patch.EstimatedDuration != nil {
		t.Schema.EstimatedDuration = *patch.EstimatedDuration
	}
	if patch.Dependencies != nil {
		t.Schema.Dependencies = append([]string(nil), (*patch.Dependencies)...)
	}
	if patch.AssignedAgent != nil {
		t.Schema.AssignedAgent = *patch.AssignedAgent
	}
	if patch.ExecutionPath != nil {
		t.Schema.ExecutionPath = *patch.ExecutionPath
	}
	if patch.DueDate != nil {
		d := *patch.DueDate
		t.Schema.DueDate = &d
	}

	// Lifecycle fields.
	if patch.Status != nil {
		prev := t.Status
		t.Status = *patch.Status
		if t.Status == task.StatusCompleted && t.CompletedAt == nil && prev != task.StatusArchived {
			stamp := now
			t.CompletedAt = &stamp
			completedNow = true
		}
	}
	if patch.ReminderEnabled != nil {
		t.ReminderEnabled = *patch.ReminderEnabled
	}
	if patch.ReminderTime != nil {
		t.ReminderTime = *patch.ReminderTime
	}
	if patch.Result != nil {
		t.Result = *patch.Result
	}
	return completedNow
}

// Delete removes a task after confirming it exists. The baseline emits no
// event on delete.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return &task.NotFoundError{Entity: "task", ID: id}
	}
	if err := e.store.DeleteOne(id); err != nil {
		e.mu.Unlock()
		return err
	}
	next := append([]*task.Task(nil), e.tasks[:idx]...)
	next = append(next, e.tasks[idx+1:]...)
	e.tasks = next
	e.mu.Unlock()

	e.logger.Info("task deleted", slog.String("id", id))
	return nil
}

// Archive moves a task to ARCHIVED, stamps metadata.archivedAt, re-persists,
// and emits task:archived.
func (e *Engine) Archive(id string) (*task.Task, error) {
	archived := task.StatusArchived
	if _, err := e.Update(id, task.Update{Status: &archived}); err != nil {
		return nil, err
	}

	now := e.now()
	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil, &task.NotFoundError{Entity: "task", ID: id}
	}
	clone := e.tasks[idx].Clone()
	stamp := now
	clone.Metadata.ArchivedAt = &stamp
	clone.Metadata.LastModified = now

	next := append([]*task.Task(nil), e.tasks...)
	next[idx] = clone
	if err := e.store.SaveAll(next); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.tasks = next
	e.mu.Unlock()

	result := clone.Clone()
	e.bus.Emit(events.Event{Name: events.TaskArchived, Task: result})
	return result, nil
}

// Execute backs the external contract's execute operation: the task moves to
// IN_PROGRESS and, when given, the executor identity is assigned. The actual
// execution happens outside the engine.
func (e *Engine) Execute(id string, agent task.Agent) (*task.Task, error) {
	inProgress := task.StatusInProgress
	patch := task.Update{Status: &inProgress}
	if agent != "" {
		patch.AssignedAgent = &agent
	}
	return e.update(id, patch, events.CompletedByExecution)
}

// CompleteExecution records that an executor finished a task it was running:
// the task moves to COMPLETED and the completion event carries the execution
// method instead of manual.
func (e *Engine) CompleteExecution(id string, result string) (*task.Task, error) {
	completed := task.StatusCompleted
	patch := task.Update{Status: &completed}
	if result != "" {
		patch.Result = &result
	}
	return e.update(id, patch, events.CompletedByExecution)
}

// Get returns a copy of the task with the given ID.
func (e *Engine) Get(id string) (*task.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.indexOf(id)
	if idx < 0 {
		return nil, &task.NotFoundError{Entity: "task", ID: id}
	}
	return e.tasks[idx].Clone(), nil
}

// reload refreshes the in-memory collection from disk so that writers in
// other processes are reflected, and returns a snapshot.
func (e *Engine) reload() ([]*task.Task, error) {
	tasks, err := e.store.LoadAll()
	if err != nil {
		e.logger.Warn("reload failed, using last known collection", slog.Any("err", err))
		e.mu.Lock()
		snapshot := append([]*task.Task(nil), e.tasks...)
		e.mu.Unlock()
		return snapshot, nil
	}
	e.mu.Lock()
	e.tasks = tasks
	snapshot := append([]*task.Task(nil), tasks...)
	e.mu.Unlock()
	return snapshot, nil
}

// snapshot returns the in-memory collection without touching disk.
func (e *Engine) snapshot() []*task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*task.Task(nil), e.tasks...)
}

// indexOf must be called with e.mu held.
func (e *Engine) indexOf(id string) int {
	for i, t := range e.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
