package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/minderhq/minder/events"
)

// Scheduler polls the store for due reminders and fires them onto the bus.
type Scheduler struct {
	store    *Store
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler polling at the given interval.
func NewScheduler(store *Store, bus *events.Bus, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:    store,
		bus:      bus,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run is the main polling loop. It ticks once immediately, then at the
// configured interval, and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick fires every due reminder once: emit reminder:due, then mark it
// delivered, or re-arm it at the next cron occurrence when recurring.
func (s *Scheduler) Tick() {
	now := s.now()
	due, err := s.store.Due(now)
	if err != nil {
		s.logger.Error("scan due reminders", slog.Any("err", err))
		return
	}

	for _, r := range due {
		s.bus.Emit(events.Event{
			Name:            events.ReminderDue,
			ReminderID:      r.ID,
			ReminderMessage: r.Message,
		})

		nextAt := nextOccurrence(r.Recurring, now)
		if err := s.store.MarkDelivered(r.ID, now, nextAt); err != nil {
			s.logger.Error("mark reminder delivered", slog.String("id", r.ID), slog.Any("err", err))
		}
	}
}

// nextOccurrence parses a standard cron expression and returns the next fire
// time after now, or nil for one-shot or malformed expressions.
func nextOccurrence(expr string, now time.Time) *time.Time {
	if expr == "" {
		return nil
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil
	}
	next := sched.Next(now)
	return &next
}
