// Package api exposes report simplification and document analysis over HTTP.
// It decodes and validates requests, maps domain errors to status codes with
// client-safe messages, and routes through the trace and auth middleware.
package api
