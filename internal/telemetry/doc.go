// Package telemetry wires OpenTelemetry metrics export for taskd.
//
// The dispatcher and scheduler record counters through the global
// meter; this package installs the MeterProvider behind it. When
// telemetry is disabled the global provider stays a no-op, and
// exporter failures degrade the process instead of crashing it.
package telemetry
