// Package events provides the in-process typed publish/subscribe bus that
// decouples engine state changes from observers.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/minderhq/minder/task"
)

// Name identifies one of the closed set of bus events.
type Name string

const (
	TaskCreated   Name = "task:created"
	TaskUpdated   Name = "task:updated"
	TaskCompleted Name = "task:completed"
	TaskDeleted   Name = "task:deleted"
	TaskArchived  Name = "task:archived"
	ReminderDue   Name = "reminder:due"
)

// CompletionMethod tags how a task reached COMPLETED.
type CompletionMethod string

const (
	CompletedManually    CompletionMethod = "manual"
	CompletedByExecution CompletionMethod = "execution"
)

// Event is the payload delivered to handlers.
type Event struct {
	Name Name
	Task *task.Task

	// Set on task:completed only.
	Elapsed time.Duration
	Method  CompletionMethod

	// Set on reminder:due only.
	ReminderID      string
	ReminderMessage string
}

// Handler reacts to a single event. Handlers run synchronously on the
// emitting goroutine; a panicking handler is isolated and logged.
type Handler func(Event)

// Bus is a thread-safe in-process event bus. Handlers for a name are invoked
// in registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]handlerEntry
	nextID   int
	logger   *slog.Logger
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewBus creates an empty Bus. Handler panics are reported through logger.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[Name][]handlerEntry),
		logger:   logger,
	}
}

// On registers a handler for the named event. The returned function
// unregisters it.
func (b *Bus) On(name Name, handler Handler) (off func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[name]
		filtered := entries[:0]
		for _, e := range entries {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(b.handlers, name)
		} else {
			b.handlers[name] = filtered
		}
	}
}

// Emit synchronously invokes all handlers registered for ev.Name in
// registration order. A handler panic is recovered so remaining handlers
// still run and the emitter is never aborted.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[ev.Name]))
	for _, e := range b.handlers[ev.Name] {
		targets = append(targets, e.handler)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		b.dispatch(ev, h)
	}
}

func (b *Bus) dispatch(ev Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				slog.String("event", string(ev.Name)),
				slog.Any("panic", r),
			)
		}
	}()
	h(ev)
}
