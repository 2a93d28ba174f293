package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/channels"
	"github.com/fyrsmithlabs/taskd/internal/config"
	"github.com/fyrsmithlabs/taskd/internal/dispatch"
	"github.com/fyrsmithlabs/taskd/internal/schedule"
	"github.com/fyrsmithlabs/taskd/internal/scheduler"
	"github.com/fyrsmithlabs/taskd/internal/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder scheduler daemon",
	Long: `Run the background scheduler: every poll interval it finds due
reminders, dispatches them on their configured channels and retries
failures with exponential backoff. Stop with SIGINT or SIGTERM; the
current cycle finishes and state is saved before exit.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tm, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "taskd",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Protocol:       cfg.Telemetry.Protocol,
		Insecure:       cfg.Telemetry.Insecure,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tm.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dispatcher, err := buildDispatcher(cfg, logger)
	if err != nil {
		return err
	}

	loop := scheduler.New(
		&scheduler.Config{PollInterval: cfg.Scheduler.PollInterval},
		st,
		dispatcher,
		schedule.SystemClock(),
		logger,
	)

	return loop.Run(ctx)
}

// buildDispatcher wires the enabled delivery channels into a dispatcher.
func buildDispatcher(cfg *config.Config, logger *zap.Logger) (*dispatch.Dispatcher, error) {
	var (
		email    dispatch.EmailSender
		sms      dispatch.SMSSender
		notifier dispatch.Notifier
	)

	if cfg.Email.Enabled {
		sender, err := channels.NewSMTPSender(&channels.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
		if err != nil {
			return nil, err
		}
		email = sender

		if cfg.SMS.Enabled {
			gateway, err := channels.NewGatewaySender(sender)
			if err != nil {
				return nil, err
			}
			sms = gateway
		}
	}
	if cfg.Notify.Enabled {
		notifier = channels.NewDesktopNotifier()
	}

	return dispatch.NewDispatcher(&dispatch.Config{
		EmailTo:    cfg.Email.To,
		SMSNumber:  cfg.SMS.PhoneNumber,
		SMSCarrier: cfg.SMS.Carrier,
		Timeout:    cfg.Scheduler.DispatchTimeout,
	}, email, sms, notifier, logger), nil
}
