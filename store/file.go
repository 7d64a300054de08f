// Package store persists the task collection as a single versioned JSON
// document with atomic replacement.
//
// The store keeps no state of its own: every call re-reads the document from
// disk, so writers in other processes remain visible. Concurrent writers are
// last-writer-wins; the atomic rename is the only safeguard (see engine docs
// for the accepted read-modify-write limitation).
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/minderhq/minder/task"
)

// FileStore reads and writes the Task Collection Document at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore returns a store for the document at path. Call Initialize
// before first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Initialize ensures the containing directory and an empty, well-formed
// document exist. It is idempotent.
func (s *FileStore) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &task.StorageError{Op: "initialize", Err: err}
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &task.StorageError{Op: "initialize", Err: err}
	}
	return s.SaveAll(nil)
}

// LoadAll reads and deserializes the full document. A missing file is not an
// error: the document is created and an empty list returned.
func (s *FileStore) LoadAll() ([]*task.Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if initErr := s.Initialize(); initErr != nil {
				return nil, initErr
			}
			return nil, nil
		}
		return nil, &task.StorageError{Op: "load", Err: err}
	}

	var doc task.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &task.StorageError{Op: "load", Err: fmt.Errorf("parse %s: %w", s.path, err)}
	}
	return doc.Tasks, nil
}

// SaveAll recomputes the document's derived metadata and atomically replaces
// it on disk: write to a sibling temp file, then rename over the target. If
// the rename fails the write degrades to a direct overwrite, accepting a
// narrow non-atomicity window.
func (s *FileStore) SaveAll(tasks []*task.Task) error {
	doc := task.Document{
		Version:   task.DocumentVersion,
		LastSaved: time.Now().UTC(),
		Tasks:     tasks,
		Metadata:  task.DocumentMeta{TotalTasks: len(tasks)},
	}
	if len(tasks) > 0 {
		doc.Metadata.LastTaskID = tasks[len(tasks)-1].ID
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return &task.StorageError{Op: "save", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tasks-*.json")
	if err != nil {
		return &task.StorageError{Op: "save", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &task.StorageError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &task.StorageError{Op: "save", Err: err}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		// Rename unsupported on this filesystem: fall back to a direct write.
		os.Remove(tmpPath)
		if werr := os.WriteFile(s.path, data, 0o644); werr != nil {
			return &task.StorageError{Op: "save", Err: werr}
		}
	}
	return nil
}

// SaveOne upserts a single task by ID: load, replace or append, save.
func (s *FileStore) SaveOne(t *task.Task) error {
	tasks, err := s.LoadAll()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range tasks {
		if existing.ID == t.ID {
			tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, t)
	}
	return s.SaveAll(tasks)
}

// DeleteOne removes a task by ID: load, remove, save. It reports a not-found
// error if the ID is absent, leaving the document untouched.
func (s *FileStore) DeleteOne(id string) error {
	tasks, err := s.LoadAll()
	if err != nil {
		return err
	}
	kept := tasks[:0]
	found := false
	for _, t := range tasks {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return &task.NotFoundError{Entity: "task", ID: id}
	}
	return s.SaveAll(kept)
}

// Backup copies the current document to a timestamp-suffixed sibling file
// and returns the backup path. It errors if no document exists yet.
func (s *FileStore) Backup() (string, error) {
	src, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &task.StorageError{Op: "backup", Err: fmt.Errorf("no document at %s", s.path)}
		}
		return "", &task.StorageError{Op: "backup", Err: err}
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.%s.bak", s.path, time.Now().UTC().Format("20060102T150405"))
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", &task.StorageError{Op: "backup", Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", &task.StorageError{Op: "backup", Err: err}
	}
	if err := dst.Close(); err != nil {
		return "", &task.StorageError{Op: "backup", Err: err}
	}
	return backupPath, nil
}
