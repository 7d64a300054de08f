package engine

import (
	"fmt"
	"log/slog"

	"github.com/minderhq/minder/task"
)

// The observe/orient/decide/act loop is a lightweight rule engine over the
// same task state the CRUD surface owns. Observe and Orient are pure reads;
// Act performs no state mutation and only invokes the configured hook.

// Observation is a point-in-time summary of the collection.
type Observation struct {
	TotalTasks int        `json:"totalTasks"`
	Pending    int        `json:"pending"`
	Completed  int        `json:"completed"`
	Overdue    int        `json:"overdue"`
	DueToday   int        `json:"dueToday"`
	NextUp     *task.Task `json:"nextUp,omitempty"` // nearest upcoming pending task
}

// Alert flags a condition that deserves attention.
type Alert struct {
	Severity string `json:"severity"` // "high" or "medium"
	Message  string `json:"message"`
}

// Strategy is the oriented view of an observation.
type Strategy struct {
	Focus       *task.Task `json:"focus,omitempty"`
	Suggestions []string   `json:"suggestions"`
	Alerts      []Alert    `json:"alerts"`
}

// ActionType discriminates the actions Decide can produce.
type ActionType string

const (
	ActionFocus  ActionType = "focus"
	ActionNotify ActionType = "notify"
)

// Action is a single decided step.
type Action struct {
	Type    ActionType `json:"type"`
	TaskID  string     `json:"taskId,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Observe reloads the collection and summarizes it. NextUp is the pending
// task with the earliest future due date, if any.
func (e *Engine) Observe() (Observation, error) {
	tasks, err := e.reload()
	if err != nil {
		return Observation{}, err
	}
	now := e.now()

	obs := Observation{TotalTasks: len(tasks)}
	var nextUp *task.Task
	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending:
			obs.Pending++
		case task.StatusCompleted:
			obs.Completed++
		}
		if isOverdue(t, now) {
			obs.Overdue++
		}
		if t.Schema.DueDate != nil && sameDay(*t.Schema.DueDate, now) {
			obs.DueToday++
		}
		if t.Status == task.StatusPending && t.Schema.DueDate != nil && t.Schema.DueDate.After(now) {
			if nextUp == nil || t.Schema.DueDate.Before(*nextUp.Schema.DueDate) {
				nextUp = t
			}
		}
	}
	if nextUp != nil {
		obs.NextUp = nextUp.Clone()
	}
	return obs, nil
}

// Orient turns an observation into a strategy: a focus task, suggestions,
// and severity-tagged alerts.
func (e *Engine) Orient(obs Observation) Strategy {
	st := Strategy{
		Focus:       obs.NextUp,
		Suggestions: []string{},
		Alerts:      []Alert{},
	}
	if obs.Overdue > 0 {
		st.Suggestions = append(st.Suggestions, fmt.Sprintf("%d overdue task(s) need attention", obs.Overdue))
		st.Alerts = append(st.Alerts, Alert{
			Severity: "high",
			Message:  fmt.Sprintf("%d task(s) are overdue", obs.Overdue),
		})
	}
	if obs.DueToday > 5 {
		st.Suggestions = append(st.Suggestions, "prioritize today's tasks")
	}
	if obs.DueToday > 0 {
		st.Alerts = append(st.Alerts, Alert{
			Severity: "medium",
			Message:  fmt.Sprintf("%d task(s) due today", obs.DueToday),
		})
	}
	return st
}

// Decide converts a strategy into concrete actions: focus on the focus task
// and a notification per high-severity alert.
func (e *Engine) Decide(st Strategy) []Action {
	var actions []Action
	if st.Focus != nil {
		actions = append(actions, Action{Type: ActionFocus, TaskID: st.Focus.ID})
	}
	for _, a := range st.Alerts {
		if a.Severity == "high" {
			actions = append(actions, Action{Type: ActionNotify, Message: a.Message})
		}
	}
	return actions
}

// Act executes each action through the configured hook. Without a hook the
// actions are logged. Act never mutates task state.
func (e *Engine) Act(actions []Action) {
	for _, a := range actions {
		if e.actFn != nil {
			e.actFn(a)
			continue
		}
		e.logger.Info("action",
			slog.String("type", string(a.Type)),
			slog.String("task_id", a.TaskID),
			slog.String("message", a.Message),
		)
	}
}

// RunLoop performs one full observe-orient-decide-act cycle.
func (e *Engine) RunLoop() error {
	obs, err := e.Observe()
	if err != nil {
		return err
	}
	e.Act(e.Decide(e.Orient(obs)))
	return nil
}
