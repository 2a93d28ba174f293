package telemetry

import (
	"fmt"
	"time"
)

// Config controls the OTLP metrics exporter.
type Config struct {
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address (host:port).
	Endpoint string

	// Protocol is "grpc" or "http/protobuf".
	Protocol string

	// Insecure disables TLS on the exporter connection.
	Insecure bool

	// ExportInterval is the periodic reader flush interval.
	ExportInterval time.Duration
}

// DefaultConfig returns a disabled config with local-collector defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "taskd",
		Endpoint:       "localhost:4317",
		Protocol:       "grpc",
		ExportInterval: 60 * time.Second,
	}
}

// Validate checks required fields. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	switch c.Protocol {
	case "", "grpc", "http/protobuf":
	default:
		return fmt.Errorf("unknown protocol %q (want grpc or http/protobuf)", c.Protocol)
	}
	if c.ExportInterval < 0 {
		return fmt.Errorf("export interval must not be negative")
	}
	return nil
}
