// Package analysis drives long-running document analysis (OCR) jobs to
// completion. A job is submitted once through a Service, which returns an
// opaque handle, and the Poller then checks the job's status on a fixed
// interval until the remote service reports a terminal state or the attempt
// budget runs out.
//
// Polls are strictly sequential. Transient poll failures consume the same
// attempt budget as ordinary polls; an explicit "failed" status from the
// service is never retried.
package analysis
