package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskd/internal/store"
	"github.com/fyrsmithlabs/taskd/internal/task"
)

var (
	remindAt        string
	remindKind      string
	remindAllowPast bool
)

var remindCmd = &cobra.Command{
	Use:   "remind <task-id>",
	Short: "Attach a reminder to a task",
	Long: `Attach a reminder to a task.

Examples:
  taskd remind 3 --at 1h --kind email
  taskd remind 3 --at "2026-09-01 09:00" --kind all`,
	Args: cobra.ExactArgs(1),
	RunE: runRemind,
}

var remindResetCmd = &cobra.Command{
	Use:   "remind-reset <task-id> <reminder-id>",
	Short: "Clear a reminder's attempts so it is delivered again",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemindReset,
}

var remindRmCmd = &cobra.Command{
	Use:   "remind-rm <task-id> <reminder-id>",
	Short: "Remove a reminder from a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemindRemove,
}

func init() {
	remindCmd.Flags().StringVar(&remindAt, "at", "", "trigger time (RFC3339, \"2006-01-02 15:04\" or duration like 1h30m)")
	remindCmd.Flags().StringVar(&remindKind, "kind", "notification", "email, notification, sms, both or all")
	remindCmd.Flags().BoolVar(&remindAllowPast, "allow-past", false, "allow a trigger time in the past")
	_ = remindCmd.MarkFlagRequired("at")
}

func runRemind(cmd *cobra.Command, args []string) error {
	taskID, err := parseID(args[0])
	if err != nil {
		return err
	}
	at, err := parseTime(remindAt, time.Now())
	if err != nil {
		return err
	}

	var reminderID uint64
	err = withStore(cmd.Context(), func(st *store.Store) error {
		var err error
		reminderID, err = st.AddReminder(taskID, at, task.Kind(remindKind), remindAllowPast)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("added reminder %d to task %d\n", reminderID, taskID)
	return nil
}

func runRemindRemove(cmd *cobra.Command, args []string) error {
	taskID, err := parseID(args[0])
	if err != nil {
		return err
	}
	reminderID, err := parseID(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), func(st *store.Store) error {
		return st.RemoveReminder(taskID, reminderID)
	})
}

func runRemindReset(cmd *cobra.Command, args []string) error {
	taskID, err := parseID(args[0])
	if err != nil {
		return err
	}
	reminderID, err := parseID(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), func(st *store.Store) error {
		return st.ResetReminder(taskID, reminderID)
	})
}
