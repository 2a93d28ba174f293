// Package schedule holds the pure scheduling logic: deciding which
// reminders are due, computing retry backoff, and applying delivery
// outcomes to the reminder state machine. Nothing here touches a lock,
// the network or the filesystem, so every rule is testable with a fake
// clock and in-memory tasks.
package schedule
