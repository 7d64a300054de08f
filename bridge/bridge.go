// Package bridge exposes the engine's collaborator contract: a transport-
// agnostic request/response envelope any caller (HTTP server, IPC channel,
// agent shim) can wrap.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minderhq/minder/engine"
	"github.com/minderhq/minder/reminder"
	"github.com/minderhq/minder/task"
	"github.com/minderhq/minder/telemetry"
)

// Request is the uniform inbound shape.
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the uniform result envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Bridge translates envelope requests into engine and reminder calls. No Go
// error ever escapes Handle; failures are reported inside the envelope.
type Bridge struct {
	engine    *engine.Engine
	reminders *reminder.Store
	logger    *slog.Logger
}

// New creates a bridge over the given engine and reminder store. The
// reminder store may be nil, in which case reminder.* actions fail cleanly.
func New(eng *engine.Engine, reminders *reminder.Store, logger *slog.Logger) *Bridge {
	return &Bridge{engine: eng, reminders: reminders, logger: logger}
}

// executePayload is the body of an execute request.
type executePayload struct {
	ID    string     `json:"id"`
	Agent task.Agent `json:"agent,omitempty"`
}

// executeResultPayload is the body of an execute.complete request.
type executeResultPayload struct {
	ID     string `json:"id"`
	Result string `json:"result,omitempty"`
}

// idPayload carries a bare entity ID.
type idPayload struct {
	ID string `json:"id"`
}

// updatePayload pairs an ID with the patch to apply.
type updatePayload struct {
	ID string `json:"id"`
	task.Update
}

// reminderPayload is the body of a reminder.create request. At accepts an
// RFC 3339 timestamp.
type reminderPayload struct {
	TaskID    string    `json:"taskId"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
	Recurring string    `json:"recurring,omitempty"`
}

// listReminderPayload optionally restricts reminder.list to one task.
type listReminderPayload struct {
	TaskID string `json:"taskId,omitempty"`
}

// Handle dispatches a single request and always returns a well-formed
// envelope.
func (b *Bridge) Handle(req Request) Response {
	resp := b.dispatch(req)
	outcome := "ok"
	if !resp.Success {
		outcome = "error"
	}
	telemetry.BridgeRequests.WithLabelValues(req.Action, outcome).Inc()
	return resp
}

func (b *Bridge) dispatch(req Request) Response {
	switch req.Action {
	case "create":
		var in task.Input
		if err := unmarshal(req.Payload, &in); err != nil {
			return fail(err)
		}
		t, err := b.engine.Create(in)
		if err != nil {
			return fail(err)
		}
		return ok(t, "task created")

	case "update":
		var p updatePayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		t, err := b.engine.Update(p.ID, p.Update)
		if err != nil {
			return fail(err)
		}
		return ok(t, "task updated")

	case "delete":
		var p idPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		if err := b.engine.Delete(p.ID); err != nil {
			return fail(err)
		}
		return ok(nil, "task deleted")

	case "get":
		var p idPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		t, err := b.engine.Get(p.ID)
		if err != nil {
			return fail(err)
		}
		return ok(t, "")

	case "list":
		var f engine.Filter
		if err := unmarshal(req.Payload, &f); err != nil {
			return fail(err)
		}
		tasks, err := b.engine.List(f)
		if err != nil {
			return fail(err)
		}
		return ok(tasks, "")

	case "execute":
		var p executePayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		t, err := b.engine.Execute(p.ID, p.Agent)
		if err != nil {
			return fail(err)
		}
		return ok(t, "task execution started")

	case "execute.complete":
		var p executeResultPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		t, err := b.engine.CompleteExecution(p.ID, p.Result)
		if err != nil {
			return fail(err)
		}
		return ok(t, "task execution completed")

	case "archive":
		var p idPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		t, err := b.engine.Archive(p.ID)
		if err != nil {
			return fail(err)
		}
		return ok(t, "task archived")

	case "stats":
		return ok(b.engine.Stats(), "")

	case "analytics":
		return ok(b.engine.Analytics(), "")

	case "reminder.create":
		if b.reminders == nil {
			return fail(errors.New("reminder surface not configured"))
		}
		var p reminderPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		r := &reminder.Reminder{TaskID: p.TaskID, Message: p.Message, At: p.At, Recurring: p.Recurring}
		if _, err := b.reminders.Create(r); err != nil {
			return fail(err)
		}
		return ok(r, "reminder created")

	case "reminder.list":
		if b.reminders == nil {
			return fail(errors.New("reminder surface not configured"))
		}
		var p listReminderPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		reminders, err := b.reminders.List(p.TaskID)
		if err != nil {
			return fail(err)
		}
		return ok(reminders, "")

	case "reminder.delete":
		if b.reminders == nil {
			return fail(errors.New("reminder surface not configured"))
		}
		var p idPayload
		if err := unmarshal(req.Payload, &p); err != nil {
			return fail(err)
		}
		if err := b.reminders.Delete(p.ID); err != nil {
			return fail(err)
		}
		return ok(nil, "reminder deleted")

	default:
		return fail(fmt.Errorf("unknown action %q", req.Action))
	}
}

func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func ok(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

func fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
