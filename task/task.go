// Package task defines the task model, validation, and identity generation
// for the Minder lifecycle engine.
package task

import "time"

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusCompleted   Status = "COMPLETED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusArchived    Status = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusNeedsReview, StatusArchived:
		return true
	}
	return false
}

// Agent identifies an executor that can be assigned a task.
type Agent string

const (
	AgentClaudeCode Agent = "claude-code"
	AgentGeminiCLI  Agent = "gemini-cli"
)

// KnownAgent reports whether a is one of the fixed executor identities.
func KnownAgent(a Agent) bool {
	return a == AgentClaudeCode || a == AgentGeminiCLI
}

// CreatedBy is the provenance tag stamped into every task's metadata.
const CreatedBy = "minder-engine"

// DocumentVersion is the on-disk format version tag.
const DocumentVersion = "1.0"

// Schema holds the descriptive/content fields of a task, as distinct from
// its lifecycle fields.
type Schema struct {
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	AffectedFiles     []string   `json:"affectedFiles,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration,omitempty"` // minutes
	Dependencies      []string   `json:"dependencies,omitempty"`      // task IDs, not checked for existence
	AssignedAgent     Agent      `json:"assignedAgent,omitempty"`
	ExecutionPath     string     `json:"executionPath,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
}

// Metadata carries per-task bookkeeping.
type Metadata struct {
	Version      int        `json:"version"` // write counter, starts at 1
	CreatedBy    string     `json:"createdBy"`
	LastModified time.Time  `json:"lastModified"`
	ArchivedAt   *time.Time `json:"archivedAt,omitempty"`
}

// Task is the central entity owned by the engine.
type Task struct {
	ID              string     `json:"id"`
	Schema          Schema     `json:"schema"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"` // stamped once, never re-stamped
	ReminderEnabled bool       `json:"reminderEnabled"`
	ReminderTime    string     `json:"reminderTime,omitempty"`
	Result          string     `json:"result,omitempty"`
	Metadata        Metadata   `json:"metadata"`
}

// Clone returns a deep copy of t. Slices and time pointers are copied so
// mutations to the clone never leak into the original.
func (t *Task) Clone() *Task {
	c := *t
	c.Schema.Tags = append([]string(nil), t.Schema.Tags...)
	c.Schema.AffectedFiles = append([]string(nil), t.Schema.AffectedFiles...)
	c.Schema.Dependencies = append([]string(nil), t.Schema.Dependencies...)
	if t.Schema.DueDate != nil {
		d := *t.Schema.DueDate
		c.Schema.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	if t.Metadata.ArchivedAt != nil {
		d := *t.Metadata.ArchivedAt
		c.Metadata.ArchivedAt = &d
	}
	return &c
}

// DocumentMeta is the derived metadata block of the persisted document.
type DocumentMeta struct {
	TotalTasks int    `json:"totalTasks"`
	LastTaskID string `json:"lastTaskId"`
}

// Document is the persisted aggregate: the unit of durability. Every
// mutation rewrites the whole document.
type Document struct {
	Version   string       `json:"version"`
	LastSaved time.Time    `json:"lastSaved"`
	Tasks     []*Task      `json:"tasks"`
	Metadata  DocumentMeta `json:"metadata"`
}
