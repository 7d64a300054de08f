package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/minderhq/minder/task"
)

// Filter controls which tasks List returns. Filters apply in declaration
// order: status set, tag intersection, substring search, due-date range,
// then pagination after sorting.
type Filter struct {
	Status    []task.Status `json:"status,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Search    string        `json:"search,omitempty"`
	DueAfter  *time.Time    `json:"dueAfter,omitempty"`
	DueBefore *time.Time    `json:"dueBefore,omitempty"`
	Offset    int           `json:"offset,omitempty"`
	Limit     int           `json:"limit,omitempty"`
}

// List reloads the collection from disk (reflecting out-of-process writers),
// applies the filter, and returns copies sorted due-date-first.
func (e *Engine) List(f Filter) ([]*task.Task, error) {
	tasks, err := e.reload()
	if err != nil {
		return nil, err
	}

	matched := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.matches(t) {
			matched = append(matched, t)
		}
	}
	sortTasks(matched)

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	out := make([]*task.Task, len(matched))
	for i, t := range matched {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f Filter) matches(t *task.Task) bool {
	if len(f.Status) > 0 && !containsStatus(f.Status, t.Status) {
		return false
	}
	if len(f.Tags) > 0 && !anyTagMatch(f.Tags, t.Schema.Tags) {
		return false
	}
	if f.Search != "" && !searchMatch(t, f.Search) {
		return false
	}
	if f.DueAfter != nil || f.DueBefore != nil {
		if t.Schema.DueDate == nil {
			return false
		}
		due := *t.Schema.DueDate
		if f.DueAfter != nil && due.Before(*f.DueAfter) {
			return false
		}
		if f.DueBefore != nil && due.After(*f.DueBefore) {
			return false
		}
	}
	return true
}

func containsStatus(set []task.Status, s task.Status) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

// anyTagMatch reports whether the task carries at least one of the wanted tags.
func anyTagMatch(wanted, have []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

// searchMatch performs a case-insensitive substring search over title,
// description, and tags.
func searchMatch(t *task.Task, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Schema.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Schema.Description), q) {
		return true
	}
	for _, tag := range t.Schema.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// sortTasks orders tasks with a due date first, ascending by due date,
// followed by tasks without one, descending by creation time.
func sortTasks(tasks []*task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].Schema.DueDate, tasks[j].Schema.DueDate
		switch {
		case di != nil && dj != nil:
			return di.Before(*dj)
		case di != nil:
			return true
		case dj != nil:
			return false
		default:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
	})
}
