package engine

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minderhq/minder/events"
	"github.com/minderhq/minder/store"
	"github.com/minderhq/minder/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock hands out strictly increasing timestamps so creation order is
// always distinguishable.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestEngine(t *testing.T) (*Engine, *events.Bus, *fakeClock) {
	t.Helper()
	logger := discardLogger()
	bus := events.NewBus(logger)
	st := store.NewFileStore(filepath.Join(t.TempDir(), "tasks.json"))
	eng, err := New(st, bus, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clock := &fakeClock{t: time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)}
	eng.now = clock.now
	return eng, bus, clock
}

func TestCreate_GeneratesUniqueIDs(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		created, err := eng.Create(task.Input{Title: "Same title"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[created.ID] {
			t.Fatalf("duplicate id %s", created.ID)
		}
		seen[created.ID] = true
	}
}

func TestCreate_InitialState(t *testing.T) {
	eng, bus, _ := newTestEngine(t)

	var got events.Event
	bus.On(events.TaskCreated, func(ev events.Event) { got = ev })

	created, err := eng.Create(task.Input{Title: "  Trim me  ", Tags: []string{"home"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Schema.Title != "Trim me" {
		t.Errorf("Title = %q, want trimmed", created.Schema.Title)
	}
	if created.Status != task.StatusPending {
		t.Errorf("Status = %q, want PENDING", created.Status)
	}
	if created.Metadata.Version != 1 {
		t.Errorf("Version = %d, want 1", created.Metadata.Version)
	}
	if created.Metadata.CreatedBy != task.CreatedBy {
		t.Errorf("CreatedBy = %q, want %q", created.Metadata.CreatedBy, task.CreatedBy)
	}
	if created.CompletedAt != nil {
		t.Error("CompletedAt set on creation")
	}
	if got.Task == nil || got.Task.ID != created.ID {
		t.Errorf("task:created event task = %+v, want %s", got.Task, created.ID)
	}
}

func TestCreate_PastDueDateRejected(t *testing.T) {
	eng, _, clock := newTestEngine(t)

	past := clock.t.Add(-time.Hour)
	_, err := eng.Create(task.Input{Title: "Too late", DueDate: &past})
	var verr *task.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Field != "dueDate" {
		t.Errorf("Field = %q, want dueDate", verr.Field)
	}
}

func TestUpdate_CompletionScenario(t *testing.T) {
	eng, bus, _ := newTestEngine(t)

	completedEvents := 0
	var completedEv events.Event
	bus.On(events.TaskCompleted, func(ev events.Event) {
		completedEvents++
		completedEv = ev
	})

	created, err := eng.Create(task.Input{Title: "Finish the report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	completed := task.StatusCompleted
	updated, err := eng.Update(created.ID, task.Update{Status: &completed})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}
	if updated.Metadata.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Metadata.Version)
	}
	if completedEvents != 1 {
		t.Errorf("task:completed emitted %d times, want exactly 1", completedEvents)
	}
	if completedEv.Elapsed <= 0 {
		t.Errorf("Elapsed = %v, want > 0", completedEv.Elapsed)
	}
	if completedEv.Method != events.CompletedManually {
		t.Errorf("Method = %q, want manual", completedEv.Method)
	}
}

func TestUpdate_CompletedAtIsPermanent(t *testing.T) {
	eng, bus, _ := newTestEngine(t)

	completedEvents := 0
	bus.On(events.TaskCompleted, func(events.Event) { completedEvents++ })

	created, _ := eng.Create(task.Input{Title: "Once only"})

	completed := task.StatusCompleted
	first, err := eng.Update(created.ID, task.Update{Status: &completed})
	if err != nil {
		t.Fatalf("first Update: %v", err)
	}
	stamp := *first.CompletedAt

	// Bounce through other statuses and back to COMPLETED.
	review := task.StatusNeedsReview
	if _, err := eng.Update(created.ID, task.Update{Status: &review}); err != nil {
		t.Fatalf("Update to NEEDS_REVIEW: %v", err)
	}
	again, err := eng.Update(created.ID, task.Update{Status: &completed})
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}

	if !again.CompletedAt.Equal(stamp) {
		t.Errorf("CompletedAt changed: %v -> %v", stamp, again.CompletedAt)
	}
	if completedEvents != 1 {
		t.Errorf("task:completed emitted %d times, want 1", completedEvents)
	}
}

func TestUpdate_VersionIsAWriteCounter(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	created, _ := eng.Create(task.Input{Title: "Counter"})

	desc := "same description"
	for want := 2; want <= 4; want++ {
		updated, err := eng.Update(created.ID, task.Update{Description: &desc})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.Metadata.Version != want {
			t.Errorf("Version = %d, want %d", updated.Metadata.Version, want)
		}
	}
}

func TestUpdate_NotFound(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	desc := "x"
	_, err := eng.Update("missing", task.Update{Description: &desc})
	var nf *task.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestDelete_UnknownIDLeavesDocumentUntouched(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	if _, err := eng.Create(task.Input{Title: "Keep me"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	before, err := os.ReadFile(eng.store.Path())
	if err != nil {
		t.Fatalf("read document: %v", err)
	}

	delErr := eng.Delete("missing")
	var nf *task.NotFoundError
	if !errors.As(delErr, &nf) {
		t.Fatalf("Delete error = %v, want NotFoundError", delErr)
	}

	after, _ := os.ReadFile(eng.store.Path())
	if string(before) != string(after) {
		t.Error("document changed by failed delete")
	}
}

func TestDelete_RemovesFromMemoryAndDisk(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	created, _ := eng.Create(task.Input{Title: "Doomed"})

	if err := eng.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := eng.Get(created.ID); err == nil {
		t.Error("Get after delete succeeded")
	}
	tasks, err := eng.List(Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("tasks after delete = %d, want 0", len(tasks))
	}
}

func TestArchive(t *testing.T) {
	eng, bus, _ := newTestEngine(t)

	archivedEvents := 0
	bus.On(events.TaskArchived, func(events.Event) { archivedEvents++ })

	created, _ := eng.Create(task.Input{Title: "Old news"})
	archived, err := eng.Archive(created.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Status != task.StatusArchived {
		t.Errorf("Status = %q, want ARCHIVED", archived.Status)
	}
	if archived.Metadata.ArchivedAt == nil {
		t.Error("ArchivedAt not stamped")
	}
	if archivedEvents != 1 {
		t.Errorf("task:archived emitted %d times, want 1", archivedEvents)
	}
}

func TestExecute(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	created, _ := eng.Create(task.Input{Title: "Run it"})

	executed, err := eng.Execute(created.ID, task.AgentClaudeCode)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if executed.Status != task.StatusInProgress {
		t.Errorf("Status = %q, want IN_PROGRESS", executed.Status)
	}
	if executed.Schema.AssignedAgent != task.AgentClaudeCode {
		t.Errorf("AssignedAgent = %q, want claude-code", executed.Schema.AssignedAgent)
	}
}

func TestCompleteExecution(t *testing.T) {
	eng, bus, _ := newTestEngine(t)

	var got events.Event
	bus.On(events.TaskCompleted, func(ev events.Event) { got = ev })

	created, _ := eng.Create(task.Input{Title: "Agent work"})
	if _, err := eng.Execute(created.ID, task.AgentGeminiCLI); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	done, err := eng.CompleteExecution(created.ID, "all green")
	if err != nil {
		t.Fatalf("CompleteExecution: %v", err)
	}
	if done.Status != task.StatusCompleted {
		t.Errorf("Status = %q, want COMPLETED", done.Status)
	}
	if done.Result != "all green" {
		t.Errorf("Result = %q, want all green", done.Result)
	}
	if done.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
	if got.Method != events.CompletedByExecution {
		t.Errorf("Method = %q, want execution", got.Method)
	}
}

func TestUpdate_FailedValidationLeavesStateUntouched(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	created, _ := eng.Create(task.Input{Title: "Stable"})

	bad := ""
	if _, err := eng.Update(created.ID, task.Update{Title: &bad}); err == nil {
		t.Fatal("empty title accepted")
	}

	got, err := eng.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Metadata.Version != 1 {
		t.Errorf("Version = %d, want 1 after failed update", got.Metadata.Version)
	}
	if got.Schema.Title != "Stable" {
		t.Errorf("Title = %q, want unchanged", got.Schema.Title)
	}
}
