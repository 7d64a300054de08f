// Package telemetry declares the Prometheus metric catalog for Minder.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BridgeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minder",
		Subsystem: "bridge",
		Name:      "requests_total",
		Help:      "Total bridge requests, labelled by action and outcome.",
	}, []string{"action", "outcome"})

	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minder",
		Subsystem: "engine",
		Name:      "tasks_created_total",
		Help:      "Total tasks created.",
	})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minder",
		Subsystem: "engine",
		Name:      "tasks_completed_total",
		Help:      "Total tasks that reached COMPLETED.",
	})

	RemindersFired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minder",
		Subsystem: "reminder",
		Name:      "fired_total",
		Help:      "Total reminders fired onto the bus.",
	})
)
