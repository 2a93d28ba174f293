// Package store owns the shared task set. All access from the foreground
// CLI and the background scheduler goes through a single mutex-guarded
// Store; persistence is delegated to a pluggable backend and scheduled
// (not forced) on every successful mutation.
package store
