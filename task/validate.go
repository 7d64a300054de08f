package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
)

// Input is the payload accepted when creating a task.
type Input struct {
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	AffectedFiles     []string   `json:"affectedFiles,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration,omitempty"`
	Dependencies      []string   `json:"dependencies,omitempty"`
	AssignedAgent     Agent      `json:"assignedAgent,omitempty"`
	ExecutionPath     string     `json:"executionPath,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	ReminderEnabled   bool       `json:"reminderEnabled,omitempty"`
	ReminderTime      string     `json:"reminderTime,omitempty"`
}

// ValidateInput checks a creation payload. The due date must not be in the
// past relative to now.
func ValidateInput(in Input, now time.Time) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", maxTitleLen)}
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("description exceeds %d characters", maxDescriptionLen)}
	}
	if in.DueDate != nil && in.DueDate.Before(now) {
		return &ValidationError{Field: "dueDate", Message: "dueDate must not be in the past"}
	}
	if in.AssignedAgent != "" && !KnownAgent(in.AssignedAgent) {
		return &ValidationError{Field: "assignedAgent", Message: fmt.Sprintf("unknown agent %q", in.AssignedAgent)}
	}
	return nil
}

// Update is the patch payload accepted when updating a task. Nil fields are
// left untouched; unknown JSON keys are dropped during decoding rather than
// polluting the record.
type Update struct {
	// Schema fields.
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	Tags              *[]string  `json:"tags,omitempty"`
	AffectedFiles     *[]string  `json:"affectedFiles,omitempty"`
	EstimatedDuration *int       `json:"estimatedDuration,omitempty"`
	Dependencies      *[]string  `json:"dependencies,omitempty"`
	AssignedAgent     *Agent     `json:"assignedAgent,omitempty"`
	ExecutionPath     *string    `json:"executionPath,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`

	// Lifecycle fields.
	Status          *Status `json:"status,omitempty"`
	ReminderEnabled *bool   `json:"reminderEnabled,omitempty"`
	ReminderTime    *string `json:"reminderTime,omitempty"`
	Result          *string `json:"result,omitempty"`
}

// ValidateUpdate checks the fields present in a patch.
func ValidateUpdate(u Update) error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return &ValidationError{Field: "title", Message: "title must not be empty"}
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return &ValidationError{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", maxTitleLen)}
		}
	}
	if u.Description != nil && utf8.RuneCountInString(*u.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("description exceeds %d characters", maxDescriptionLen)}
	}
	if u.AssignedAgent != nil && *u.AssignedAgent != "" && !KnownAgent(*u.AssignedAgent) {
		return &ValidationError{Field: "assignedAgent", Message: fmt.Sprintf("unknown agent %q", *u.AssignedAgent)}
	}
	if u.Status != nil && !u.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *u.Status)}
	}
	return nil
}
