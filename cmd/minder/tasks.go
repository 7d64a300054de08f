package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/minderhq/minder/engine"
	"github.com/minderhq/minder/events"
	"github.com/minderhq/minder/store"
	"github.com/minderhq/minder/task"
)

// openEngine builds an engine against the configured document. Local
// subcommands share the document with a running server; the engine reloads
// from disk on reads, so both sides observe each other's writes.
func openEngine() (*engine.Engine, error) {
	st := store.NewFileStore(cfg.TasksPath())
	return engine.New(st, events.NewBus(logger), logger)
}

func addCmd() *cobra.Command {
	var (
		description string
		due         string
		tags        []string
		agent       string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			in := task.Input{
				Title:         args[0],
				Description:   description,
				Tags:          tags,
				AssignedAgent: task.Agent(agent),
			}
			if due != "" {
				d, err := time.Parse(time.RFC3339, due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				in.DueDate = &d
			}
			t, err := eng.Create(in)
			if err != nil {
				return err
			}
			fmt.Printf("created %s\n", t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&due, "due", "", "due date (RFC 3339)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags (repeatable)")
	cmd.Flags().StringVar(&agent, "agent", "", "assigned executor (claude-code or gemini-cli)")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		statuses []string
		search   string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			f := engine.Filter{Search: search, Limit: limit}
			for _, s := range statuses {
				f.Status = append(f.Status, task.Status(s))
			}
			tasks, err := eng.List(f)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				due := "-"
				if t.Schema.DueDate != nil {
					due = t.Schema.DueDate.Format("2006-01-02 15:04")
				}
				fmt.Printf("%-14s %-40s %-12s due %s\n", t.Status, truncate(t.Schema.Title, 40), t.ID[:min(len(t.ID), 12)], due)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "filter by status (repeatable)")
	cmd.Flags().StringVar(&search, "search", "", "substring search over title, description, tags")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results")
	return cmd
}

func doneCmd() *cobra.Command {
	var result string
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			completed := task.StatusCompleted
			patch := task.Update{Status: &completed}
			if result != "" {
				patch.Result = &result
			}
			t, err := eng.Update(args[0], patch)
			if err != nil {
				return err
			}
			// Tasks coming out of ARCHIVED carry no completion stamp.
			if t.CompletedAt != nil {
				fmt.Printf("completed %s at %s\n", t.ID, t.CompletedAt.Format(time.RFC3339))
			} else {
				fmt.Printf("completed %s\n", t.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "outcome note")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			if _, err := eng.List(engine.Filter{}); err != nil { // refresh from disk
				return err
			}
			s := eng.Stats()
			fmt.Printf("total:       %d\n", s.TotalTasks)
			for status, n := range s.ByStatus {
				fmt.Printf("  %-13s %d\n", status, n)
			}
			fmt.Printf("completion:  %.1f%%\n", s.CompletionRate)
			fmt.Printf("avg done in: %.1fh\n", s.AverageCompletionHours)
			fmt.Printf("overdue:     %d\n", s.OverdueCount)
			fmt.Printf("due today:   %d\n", s.DueTodayCount)
			fmt.Printf("trend:       %s\n", s.ProductivityTrend)
			return nil
		},
	}
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the task document to a timestamped backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.NewFileStore(cfg.TasksPath())
			path, err := st.Backup()
			if err != nil {
				return err
			}
			fmt.Printf("backup written to %s\n", path)
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
