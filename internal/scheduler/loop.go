// Package scheduler runs the background loop that evaluates, dispatches
// and persists reminders while the foreground CLI mutates the same
// store.
package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/dispatch"
	"github.com/fyrsmithlabs/taskd/internal/schedule"
	"github.com/fyrsmithlabs/taskd/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/taskd/internal/scheduler"

// Config configures the scheduler loop.
type Config struct {
	// PollInterval is how long the loop sleeps between cycles.
	PollInterval time.Duration

	// ShutdownFlushTimeout bounds the final save on shutdown.
	ShutdownFlushTimeout time.Duration
}

// DefaultConfig returns the loop defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:         30 * time.Second,
		ShutdownFlushTimeout: 5 * time.Second,
	}
}

// Loop is the long-lived background process. Each cycle snapshots the
// due reminders under the store lock, dispatches them without it, folds
// the outcomes back in, and persists. A failure on any single reminder
// never aborts the cycle.
type Loop struct {
	config     *Config
	store      *store.Store
	dispatcher *dispatch.Dispatcher
	clock      schedule.Clock
	logger     *zap.Logger

	meter        metric.Meter
	cycleCounter metric.Int64Counter
	dueCounter   metric.Int64Counter
}

// New creates the scheduler loop.
func New(cfg *Config, st *store.Store, d *dispatch.Dispatcher, clock schedule.Clock, logger *zap.Logger) *Loop {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.ShutdownFlushTimeout <= 0 {
		cfg.ShutdownFlushTimeout = DefaultConfig().ShutdownFlushTimeout
	}
	if clock == nil {
		clock = schedule.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Loop{
		config:     cfg,
		store:      st,
		dispatcher: d,
		clock:      clock,
		logger:     logger,
		meter:      otel.Meter(instrumentationName),
	}

	l.initMetrics()

	return l
}

func (l *Loop) initMetrics() {
	var err error

	l.cycleCounter, err = l.meter.Int64Counter(
		"taskd.scheduler.cycles_total",
		metric.WithDescription("Total number of scheduler cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		l.logger.Warn("failed to create cycle counter", zap.Error(err))
	}

	l.dueCounter, err = l.meter.Int64Counter(
		"taskd.scheduler.due_reminders_total",
		metric.WithDescription("Total number of due reminders processed"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		l.logger.Warn("failed to create due counter", zap.Error(err))
	}
}

// Run executes cycles until ctx is cancelled, then finishes the current
// cycle, flushes unsaved state and returns. It never terminates on its
// own.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("scheduler started", zap.Duration("poll_interval", l.config.PollInterval))

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	l.Cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			l.shutdownFlush()
			l.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			l.Cycle(ctx)
		}
	}
}

// Cycle runs one scheduler pass: evaluate, dispatch, record, persist.
// Exported so tests can drive the loop deterministically with a fake
// clock.
func (l *Loop) Cycle(ctx context.Context) {
	now := l.clock.Now()
	due := l.store.ListDue(now)

	if l.cycleCounter != nil {
		l.cycleCounter.Add(ctx, 1)
	}
	if len(due) > 0 {
		l.logger.Info("processing due reminders", zap.Int("count", len(due)))
		if l.dueCounter != nil {
			l.dueCounter.Add(ctx, int64(len(due)))
		}
	}

	for _, d := range due {
		// The dispatch call may block on channel I/O; the store lock
		// is not held here.
		outcomes := l.dispatcher.Dispatch(ctx, d.Task, d.Reminder)

		if err := l.store.RecordDeliveryResult(d.Task.ID, d.Reminder.ID, outcomes, l.clock.Now()); err != nil {
			// Task or reminder removed mid-cycle. The attempt already
			// fired; nothing left to record.
			l.logger.Warn("failed to record delivery result",
				zap.Uint64("task_id", d.Task.ID),
				zap.Uint64("reminder_id", d.Reminder.ID),
				zap.Error(err),
			)
		}
	}

	if err := l.store.Flush(ctx); err != nil {
		// In-memory state stays authoritative; retried next cycle.
		l.logger.Error("failed to persist tasks", zap.Error(err))
	}
}

func (l *Loop) shutdownFlush() {
	if !l.store.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.config.ShutdownFlushTimeout)
	defer cancel()
	if err := l.store.Flush(ctx); err != nil {
		l.logger.Error("failed to persist tasks on shutdown", zap.Error(err))
	}
}
