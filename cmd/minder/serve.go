package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minderhq/minder/bridge"
	"github.com/minderhq/minder/engine"
	"github.com/minderhq/minder/events"
	"github.com/minderhq/minder/reminder"
	"github.com/minderhq/minder/server"
	"github.com/minderhq/minder/store"
	"github.com/minderhq/minder/telemetry"
)

// wireObservers subscribes the telemetry counters and log lines to bus
// events. The lifecycle counters ride the bus so each transition is counted
// exactly once: task:completed fires only on the first transition into
// COMPLETED, no matter how many updates re-assert the status.
func wireObservers(bus *events.Bus, logger *slog.Logger) {
	bus.On(events.TaskCreated, func(events.Event) { telemetry.TasksCreated.Inc() })
	bus.On(events.TaskCompleted, func(events.Event) { telemetry.TasksCompleted.Inc() })
	bus.On(events.ReminderDue, func(ev events.Event) {
		telemetry.RemindersFired.Inc()
		logger.Info("reminder due",
			slog.String("id", ev.ReminderID),
			slog.String("message", ev.ReminderMessage),
		)
	})
}

// serveCmd is the composition root: every component is constructed and wired
// explicitly here, with no hidden registries.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP bridge server and reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			bus := events.NewBus(logger)

			st := store.NewFileStore(cfg.TasksPath())
			eng, err := engine.New(st, bus, logger)
			if err != nil {
				return err
			}

			reminders, err := reminder.NewStore(cfg.RemindersPath())
			if err != nil {
				return err
			}
			defer reminders.Close()

			// Observers: surface engine decisions and fired reminders.
			eng.SetActionHook(func(a engine.Action) {
				logger.Info("engine action",
					slog.String("type", string(a.Type)),
					slog.String("task_id", a.TaskID),
					slog.String("message", a.Message),
				)
			})
			wireObservers(bus, logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sched := reminder.NewScheduler(reminders, bus, cfg.Reminders.CheckInterval, logger)
			go sched.Run(ctx)

			srv := server.New(*cfg, bridge.New(eng, reminders, logger), logger)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("shutting down", slog.String("signal", sig.String()))
			}

			cancel()
			return srv.Stop(context.Background())
		},
	}
}
