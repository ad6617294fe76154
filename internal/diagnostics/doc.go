// Package diagnostics persists per-run audit records off the request path.
//
// A Store writes one value under a collection and path. AsyncRecorder sits in
// front of a Store and accepts orchestrator diagnostics without ever blocking
// the caller: records are queued and written by background workers, and are
// dropped (with a log line) when the queue is full.
package diagnostics
