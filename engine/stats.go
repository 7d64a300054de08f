package engine

import (
	"time"

	"github.com/minderhq/minder/task"
)

// Trend is the three-way productivity direction.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Stats summarizes the current collection. All values are read-derived;
// computing them has no side effects.
type Stats struct {
	TotalTasks             int                 `json:"totalTasks"`
	ByStatus               map[task.Status]int `json:"byStatus"`
	ByTag                  map[string]int      `json:"byTag"`
	AverageCompletionHours float64             `json:"averageCompletionHours"`
	CompletionRate         float64             `json:"completionRate"` // percent
	OverdueCount           int                 `json:"overdueCount"`
	DueTodayCount          int                 `json:"dueTodayCount"`
	ProductivityTrend      Trend               `json:"productivityTrend"`
}

// Stats computes collection-wide statistics from the in-memory snapshot.
func (e *Engine) Stats() Stats {
	tasks := e.snapshot()
	now := e.now()

	s := Stats{
		TotalTasks: len(tasks),
		ByStatus:   make(map[task.Status]int),
		ByTag:      make(map[string]int),
	}

	var completed int
	var totalCompletion time.Duration
	for _, t := range tasks {
		s.ByStatus[t.Status]++
		for _, tag := range t.Schema.Tags {
			s.ByTag[tag]++
		}
		if t.CompletedAt != nil {
			completed++
			totalCompletion += t.CompletedAt.Sub(t.CreatedAt)
		}
		if isOverdue(t, now) {
			s.OverdueCount++
		}
		if t.Schema.DueDate != nil && sameDay(*t.Schema.DueDate, now) {
			s.DueTodayCount++
		}
	}

	if completed > 0 {
		s.AverageCompletionHours = totalCompletion.Hours() / float64(completed)
	}
	if len(tasks) > 0 {
		s.CompletionRate = float64(s.ByStatus[task.StatusCompleted]) / float64(len(tasks)) * 100
	}
	s.ProductivityTrend = productivityTrend(tasks, now)
	return s
}

// isOverdue reports whether the task's due date has passed and the task is
// neither completed nor archived.
func isOverdue(t *task.Task, now time.Time) bool {
	if t.Schema.DueDate == nil {
		return false
	}
	if t.Status == task.StatusCompleted || t.Status == task.StatusArchived {
		return false
	}
	return t.Schema.DueDate.Before(now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// productivityTrend compares completions in the trailing 7 days against the
// preceding 7-day window with a ±10% threshold.
func productivityTrend(tasks []*task.Task, now time.Time) Trend {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var recent, previous int
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		c := *t.CompletedAt
		switch {
		case !c.Before(weekAgo) && !c.After(now):
			recent++
		case !c.Before(twoWeeksAgo) && c.Before(weekAgo):
			previous++
		}
	}

	if previous == 0 {
		if recent > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	ratio := float64(recent) / float64(previous)
	switch {
	case ratio > 1.1:
		return TrendIncreasing
	case ratio < 0.9:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// DailyBucket counts completions on a single calendar day.
type DailyBucket struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Completed int    `json:"completed"`
}

// WeeklyBucket counts completions in one 7-day window starting at WeekStart.
type WeeklyBucket struct {
	WeekStart string `json:"weekStart"` // YYYY-MM-DD
	Completed int    `json:"completed"`
}

// Analytics is the productivity breakdown over the current collection.
type Analytics struct {
	CompletedToday         int                 `json:"completedToday"`
	CompletedThisWeek      int                 `json:"completedThisWeek"`
	AverageTasksPerDay     float64             `json:"averageTasksPerDay"`
	CompletionRate         float64             `json:"completionRate"`
	AverageCompletionHours float64             `json:"averageCompletionHours"`
	ByStatus               map[task.Status]int `json:"byStatus"`
	Daily                  []DailyBucket       `json:"daily"`  // trailing 7 days, oldest first
	Weekly                 []WeeklyBucket      `json:"weekly"` // trailing 4 weeks, oldest first
}

// Analytics computes the productivity breakdown and trailing trend series.
func (e *Engine) Analytics() Analytics {
	tasks := e.snapshot()
	now := e.now()
	today := startOfDay(now)
	weekStart := startOfWeek(now)

	a := Analytics{ByStatus: make(map[task.Status]int)}

	var completed int
	var totalCompletion time.Duration
	var earliest time.Time
	for _, t := range tasks {
		a.ByStatus[t.Status]++
		if t.CompletedAt == nil {
			continue
		}
		c := *t.CompletedAt
		completed++
		totalCompletion += c.Sub(t.CreatedAt)
		if earliest.IsZero() || c.Before(earliest) {
			earliest = c
		}
		if !c.Before(today) {
			a.CompletedToday++
		}
		if !c.Before(weekStart) {
			a.CompletedThisWeek++
		}
	}

	if completed > 0 {
		a.AverageCompletionHours = totalCompletion.Hours() / float64(completed)
		days := now.Sub(earliest).Hours() / 24
		if days < 1 {
			days = 1
		}
		a.AverageTasksPerDay = float64(completed) / days
	}
	if len(tasks) > 0 {
		a.CompletionRate = float64(a.ByStatus[task.StatusCompleted]) / float64(len(tasks)) * 100
	}

	// 7 daily buckets ending today.
	for i := 6; i >= 0; i-- {
		dayStart := today.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		a.Daily = append(a.Daily, DailyBucket{
			Date:      dayStart.Format("2006-01-02"),
			Completed: completionsBetween(tasks, dayStart, dayEnd),
		})
	}

	// 4 weekly buckets ending with the current week.
	for i := 3; i >= 0; i-- {
		ws := weekStart.AddDate(0, 0, -7*i)
		we := ws.AddDate(0, 0, 7)
		a.Weekly = append(a.Weekly, WeeklyBucket{
			WeekStart: ws.Format("2006-01-02"),
			Completed: completionsBetween(tasks, ws, we),
		})
	}
	return a
}

func completionsBetween(tasks []*task.Task, start, end time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		c := *t.CompletedAt
		if !c.Before(start) && c.Before(end) {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the most recent Monday at 00:00.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}
