// Package orchestrator runs a fixed set of named, independent tasks
// concurrently and assembles one composite result from their outcomes.
//
// Every task is awaited (settle-all); one task's failure never cancels its
// siblings. A task that errors, panics, returns a value of the wrong shape or
// is still running at the run deadline contributes its fallback value
// instead, so the composite result always has a field for every task.
package orchestrator
