package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/minderhq/minder/config"
	"github.com/minderhq/minder/task"
)

func setTestGlobals(t *testing.T) {
	t.Helper()
	cfg = config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDoneCmd_StampsCompletion(t *testing.T) {
	setTestGlobals(t)

	eng, err := openEngine()
	if err != nil {
		t.Fatalf("openEngine: %v", err)
	}
	created, err := eng.Create(task.Input{Title: "Finish me"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cmd := doneCmd()
	cmd.SetArgs([]string{created.ID})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("done: %v", err)
	}

	fresh, err := openEngine()
	if err != nil {
		t.Fatalf("openEngine: %v", err)
	}
	got, err := fresh.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != task.StatusCompleted || got.CompletedAt == nil {
		t.Errorf("task = %+v, want completed with timestamp", got)
	}
}

// Completing a previously archived task yields no completion stamp; the
// command must handle that instead of dereferencing it.
func TestDoneCmd_ArchivedTaskHasNoStamp(t *testing.T) {
	setTestGlobals(t)

	eng, err := openEngine()
	if err != nil {
		t.Fatalf("openEngine: %v", err)
	}
	created, err := eng.Create(task.Input{Title: "Archive first"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := eng.Archive(created.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	cmd := doneCmd()
	cmd.SetArgs([]string{created.ID})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("done on archived task: %v", err)
	}

	fresh, err := openEngine()
	if err != nil {
		t.Fatalf("openEngine: %v", err)
	}
	got, err := fresh.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != task.StatusCompleted {
		t.Errorf("Status = %q, want COMPLETED", got.Status)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil out of ARCHIVED", got.CompletedAt)
	}
}
