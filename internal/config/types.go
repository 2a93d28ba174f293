package config

import (
	"fmt"
	"time"
)

// Config is the top-level taskd configuration.
type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Email     EmailConfig     `koanf:"email"`
	SMS       SMSConfig       `koanf:"sms"`
	Notify    NotifyConfig    `koanf:"notify"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Backend is "file" or "redis".
	Backend string `koanf:"backend"`

	// Path is the task file location for the file backend.
	Path string `koanf:"path"`

	// RedisAddr and RedisKey configure the redis backend.
	RedisAddr string `koanf:"redis_addr"`
	RedisKey  string `koanf:"redis_key"`
}

// SchedulerConfig bounds the background loop and the retry machine.
type SchedulerConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`

	// MaxAttempts caps dispatch attempts per reminder.
	MaxAttempts int `koanf:"max_attempts"`

	// BackoffBase and BackoffMax bound the exponential retry delay.
	BackoffBase time.Duration `koanf:"backoff_base"`
	BackoffMax  time.Duration `koanf:"backoff_max"`

	// DispatchTimeout bounds each channel call; zero disables it.
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`
}

// EmailConfig configures the SMTP channel. The same transport carries
// SMS gateway traffic.
type EmailConfig struct {
	Enabled  bool   `koanf:"enabled"`
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	To       string `koanf:"to"`
}

// SMSConfig configures SMS delivery through the carrier gateway.
type SMSConfig struct {
	Enabled     bool   `koanf:"enabled"`
	PhoneNumber string `koanf:"phone_number"`
	Carrier     string `koanf:"carrier"`
}

// NotifyConfig configures desktop notifications.
type NotifyConfig struct {
	Enabled bool `koanf:"enabled"`
}

// TelemetryConfig configures OTLP metrics export.
type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP collector address (host:port).
	Endpoint string `koanf:"endpoint"`

	// Protocol is grpc or http/protobuf.
	Protocol string `koanf:"protocol"`

	Insecure       bool          `koanf:"insecure"`
	ExportInterval time.Duration `koanf:"export_interval"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want file or redis)", c.Storage.Backend)
	}

	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler.poll_interval must be positive")
	}
	if c.Scheduler.MaxAttempts < 1 {
		return fmt.Errorf("scheduler.max_attempts must be at least 1")
	}
	if c.Scheduler.BackoffBase <= 0 {
		return fmt.Errorf("scheduler.backoff_base must be positive")
	}
	if c.Scheduler.BackoffMax < c.Scheduler.BackoffBase {
		return fmt.Errorf("scheduler.backoff_max must be at least backoff_base")
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" || c.Email.From == "" || c.Email.To == "" {
			return fmt.Errorf("email.smtp_host, email.from and email.to are required when email is enabled")
		}
	}
	if c.SMS.Enabled {
		if !c.Email.Enabled {
			return fmt.Errorf("sms requires email to be enabled (delivery uses the email-to-sms gateway)")
		}
		if c.SMS.PhoneNumber == "" || c.SMS.Carrier == "" {
			return fmt.Errorf("sms.phone_number and sms.carrier are required when sms is enabled")
		}
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
		}
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("unknown telemetry protocol %q (want grpc or http/protobuf)", c.Telemetry.Protocol)
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q (want json or console)", c.Logging.Format)
	}

	return nil
}
