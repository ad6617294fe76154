// Package docintel implements analysis.Service against an Azure Document
// Intelligence compatible REST API. Submissions return the job handle in the
// Operation-Location header; polls GET that URL until the analyze result is
// ready.
package docintel
