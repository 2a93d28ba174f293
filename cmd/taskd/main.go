// Package main implements the taskd CLI: task and reminder management in
// the foreground, and the reminder scheduler daemon via `taskd run`.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/config"
	"github.com/fyrsmithlabs/taskd/internal/logging"
	"github.com/fyrsmithlabs/taskd/internal/schedule"
	"github.com/fyrsmithlabs/taskd/internal/store"
)

var (
	// configPath is the --config flag value; empty means the default path.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskd",
	Short: "Terminal task manager with a background reminder scheduler",
	Long: `taskd manages tasks with due dates and reminders. Reminders are
delivered by email, SMS (via carrier gateway) or desktop notification,
with exponential-backoff retries on failure.

Run 'taskd run' to start the background scheduler daemon.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/taskd/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(remindRmCmd)
	rootCmd.AddCommand(remindResetCmd)
}

// setup loads config and builds the logger shared by all commands.
func setup() (*config.Config, *zap.Logger, error) {
	if err := config.EnsureConfigDir(); err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore builds the persistence backend from config and loads the
// task set. The returned close func flushes pending mutations.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Store, func() error, error) {
	var p store.Persistence
	closeFn := func() error { return nil }
	switch cfg.Storage.Backend {
	case "redis":
		rp := store.NewRedisPersistence(cfg.Storage.RedisAddr, cfg.Storage.RedisKey)
		p, closeFn = rp, rp.Close
	default:
		p = store.NewFilePersistence(cfg.Storage.Path)
	}

	policy := schedule.Policy{
		MaxAttempts: cfg.Scheduler.MaxAttempts,
		BaseDelay:   cfg.Scheduler.BackoffBase,
		MaxDelay:    cfg.Scheduler.BackoffMax,
	}

	st, err := store.Open(ctx, p, schedule.SystemClock(), policy, logger)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}

	flushClose := func() error {
		if err := st.Flush(ctx); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	}
	return st, flushClose, nil
}

// parseID parses a task or reminder id argument.
func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// parseTime accepts an absolute timestamp (RFC3339 or "2006-01-02
// 15:04") or a duration offset from now ("90m", "1h30m", "24h").
func parseTime(arg string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(arg); err == nil {
		return now.Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, arg); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", arg, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339, \"2006-01-02 15:04\" or a duration like 1h30m)", arg)
}
