package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/task"
)

const instrumentationName = "github.com/fyrsmithlabs/taskd/internal/dispatch"

// EmailSender delivers a reminder by email.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SMSSender delivers a reminder as a text message through a carrier
// gateway. Implementations truncate the message to 160 characters.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, carrier, message string) error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

var errChannelNotConfigured = errors.New("channel not configured")

// Config holds the delivery targets and the optional per-call timeout.
type Config struct {
	// EmailTo is the recipient for email reminders.
	EmailTo string

	// SMSNumber and SMSCarrier identify the SMS gateway target.
	SMSNumber  string
	SMSCarrier string

	// Timeout bounds each external channel call. Zero disables the
	// bound; a hanging channel then delays only the current cycle.
	Timeout time.Duration
}

// Dispatcher fans a due reminder out to its required channels.
type Dispatcher struct {
	config   *Config
	email    EmailSender
	sms      SMSSender
	notifier Notifier
	logger   *zap.Logger

	meter          metric.Meter
	attemptCounter metric.Int64Counter
	deliverCounter metric.Int64Counter
	failureCounter metric.Int64Counter
}

// NewDispatcher creates a dispatcher. Any channel collaborator may be nil;
// dispatching a reminder that requires a nil channel fails with a
// channel-not-configured delivery error rather than crashing.
func NewDispatcher(cfg *Config, email EmailSender, sms SMSSender, notifier Notifier, logger *zap.Logger) *Dispatcher {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		config:   cfg,
		email:    email,
		sms:      sms,
		notifier: notifier,
		logger:   logger,
		meter:    otel.Meter(instrumentationName),
	}

	d.initMetrics()

	return d
}

func (d *Dispatcher) initMetrics() {
	var err error

	d.attemptCounter, err = d.meter.Int64Counter(
		"taskd.dispatch.attempts_total",
		metric.WithDescription("Total number of channel delivery attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		d.logger.Warn("failed to create attempt counter", zap.Error(err))
	}

	d.deliverCounter, err = d.meter.Int64Counter(
		"taskd.dispatch.deliveries_total",
		metric.WithDescription("Total number of successful channel deliveries"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		d.logger.Warn("failed to create delivery counter", zap.Error(err))
	}

	d.failureCounter, err = d.meter.Int64Counter(
		"taskd.dispatch.failures_total",
		metric.WithDescription("Total number of failed channel deliveries"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		d.logger.Warn("failed to create failure counter", zap.Error(err))
	}
}

// Dispatch attempts delivery on every channel the reminder still requires
// and returns one outcome per channel. Channels that succeeded on an
// earlier attempt are skipped. A reminder already delivered yields no
// outcomes and no external calls.
func (d *Dispatcher) Dispatch(ctx context.Context, t *task.Task, r *task.Reminder) []task.ChannelOutcome {
	if r.State == task.Delivered {
		return nil
	}

	pending := r.PendingChannels()
	outcomes := make([]task.ChannelOutcome, 0, len(pending))

	for _, ch := range pending {
		err := d.deliver(ctx, ch, t)
		d.record(ctx, ch, err)

		if err != nil {
			d.logger.Warn("delivery failed",
				zap.Uint64("task_id", t.ID),
				zap.Uint64("reminder_id", r.ID),
				zap.String("channel", string(ch)),
				zap.Error(err),
			)
			outcomes = append(outcomes, task.ChannelOutcome{Channel: ch, Err: deliveryErr(ch, err)})
			continue
		}

		d.logger.Info("delivered reminder",
			zap.Uint64("task_id", t.ID),
			zap.Uint64("reminder_id", r.ID),
			zap.String("channel", string(ch)),
		)
		outcomes = append(outcomes, task.ChannelOutcome{Channel: ch})
	}

	return outcomes
}

func (d *Dispatcher) deliver(ctx context.Context, ch task.Channel, t *task.Task) error {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	switch ch {
	case task.ChannelEmail:
		if d.email == nil {
			return errChannelNotConfigured
		}
		return d.email.Send(ctx, d.config.EmailTo, emailSubject(t), emailBody(t))
	case task.ChannelSMS:
		if d.sms == nil {
			return errChannelNotConfigured
		}
		return d.sms.Send(ctx, d.config.SMSNumber, d.config.SMSCarrier, smsMessage(t))
	case task.ChannelNotification:
		if d.notifier == nil {
			return errChannelNotConfigured
		}
		return d.notifier.Notify(ctx, notifyTitle(t), t.Description)
	default:
		return fmt.Errorf("unknown channel %q", ch)
	}
}

func (d *Dispatcher) record(ctx context.Context, ch task.Channel, err error) {
	attrs := metric.WithAttributes(attribute.String("channel", string(ch)))
	if d.attemptCounter != nil {
		d.attemptCounter.Add(ctx, 1, attrs)
	}
	if err != nil {
		if d.failureCounter != nil {
			d.failureCounter.Add(ctx, 1, attrs)
		}
		return
	}
	if d.deliverCounter != nil {
		d.deliverCounter.Add(ctx, 1, attrs)
	}
}

func emailSubject(t *task.Task) string {
	return "Reminder: " + t.Title
}

func emailBody(t *task.Task) string {
	body := fmt.Sprintf("This is a reminder for your task: %s\n\nDescription: %s\n\nPriority: %s",
		t.Title, t.Description, t.Priority)
	if t.DueAt != nil {
		body += "\n\nDue: " + t.DueAt.Format("2006-01-02 15:04:05")
	}
	return body
}

func smsMessage(t *task.Task) string {
	return "Task Reminder: " + t.Title
}

func notifyTitle(t *task.Task) string {
	return "Task Reminder: " + t.Title
}
