// Package dispatch routes due reminders to the configured delivery
// channels. It performs exactly one external call per channel per
// attempt and reports per-channel outcomes; retry timing is the caller's
// concern.
package dispatch
