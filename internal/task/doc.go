// Package task defines the task and reminder data model shared by the
// store, the reminder evaluator and the delivery dispatcher.
package task
