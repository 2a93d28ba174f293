package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskd/internal/store"
	"github.com/fyrsmithlabs/taskd/internal/task"
)

var (
	addDescription string
	addPriority    string
	addDue         string
	addTags        []string
	listStatus     string

	editTitle       string
	editDescription string
	editPriority    string
	editDue         string
	editTags        []string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task.

Examples:
  taskd add "Pay bill" --due 24h --priority high
  taskd add "Write report" --desc "quarterly numbers" --tags work,q3`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks and their reminders",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunE(task.StatusCompleted),
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a task",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunE(task.StatusCancelled),
}

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit task fields",
	Long: `Edit task fields. Only the flags given are changed.

Examples:
  taskd edit 3 --priority critical
  taskd edit 3 --title "Pay water bill" --due 48h`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var rmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Delete a task and its reminders",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	addCmd.Flags().StringVar(&addDescription, "desc", "", "task description")
	addCmd.Flags().StringVar(&addPriority, "priority", "medium", "low, medium, high or critical")
	addCmd.Flags().StringVar(&addDue, "due", "", "due time (RFC3339, \"2006-01-02 15:04\" or duration like 24h)")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "comma-separated tags")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (pending, in_progress, completed, cancelled)")
	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVar(&editDescription, "desc", "", "new description")
	editCmd.Flags().StringVar(&editPriority, "priority", "", "new priority")
	editCmd.Flags().StringVar(&editDue, "due", "", "new due time")
	editCmd.Flags().StringSliceVar(&editTags, "tags", nil, "replacement tags")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	req := &store.CreateRequest{
		Title:       args[0],
		Description: addDescription,
		Priority:    task.Priority(addPriority),
		Tags:        addTags,
	}
	if addDue != "" {
		due, err := parseTime(addDue, time.Now())
		if err != nil {
			return err
		}
		req.DueAt = &due
	}

	id, err := st.CreateTask(req)
	if err != nil {
		return err
	}
	if err := closeStore(); err != nil {
		return err
	}

	fmt.Printf("created task %d\n", id)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	filter := task.Status(listStatus)
	if listStatus != "" && !filter.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidStatus, listStatus)
	}

	tasks := st.ListTasks(filter)
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}

	policy := st.Policy()
	for _, t := range tasks {
		printTask(t)
		for _, r := range t.Reminders {
			line := fmt.Sprintf("    reminder %d: %s via %s [%s]",
				r.ID, r.TriggerAt.Local().Format("2006-01-02 15:04"), r.Kind, r.State)
			if r.Attempts > 0 {
				line += fmt.Sprintf(" attempts=%d", r.Attempts)
			}
			if policy.Exhausted(r) {
				line += fmt.Sprintf(" EXHAUSTED (%s) - use 'taskd remind-reset %d %d' to retry",
					r.LastError, t.ID, r.ID)
			} else if r.LastError != "" {
				line += " error=" + r.LastError
			}
			fmt.Println(line)
		}
	}
	return nil
}

func printTask(t *task.Task) {
	line := fmt.Sprintf("%3d [%s] %s (%s)", t.ID, t.Status, t.Title, t.Priority)
	if t.DueAt != nil {
		line += " due " + t.DueAt.Local().Format("2006-01-02 15:04")
	}
	if len(t.Tags) > 0 {
		line += " #" + strings.Join(t.Tags, " #")
	}
	fmt.Println(line)
}

func statusRunE(status task.Status) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st *store.Store) error {
			return st.UpdateStatus(id, status)
		})
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	req := &store.UpdateRequest{Tags: editTags}
	if cmd.Flags().Changed("title") {
		req.Title = &editTitle
	}
	if cmd.Flags().Changed("desc") {
		req.Description = &editDescription
	}
	if cmd.Flags().Changed("priority") {
		p := task.Priority(editPriority)
		req.Priority = &p
	}
	if editDue != "" {
		due, err := parseTime(editDue, time.Now())
		if err != nil {
			return err
		}
		req.DueAt = &due
	}

	return withStore(cmd.Context(), func(st *store.Store) error {
		return st.UpdateTask(id, req)
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), func(st *store.Store) error {
		return st.DeleteTask(id)
	})
}

// withStore opens the store, runs fn and flushes on success.
func withStore(ctx context.Context, fn func(*store.Store) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return closeStore()
}
