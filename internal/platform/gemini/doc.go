// Package gemini provides an implementation of the generation.Generator interface
// backed by Google's Gemini API.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's generation tasks to Google's external AI service
// without exposing google.golang.org/genai types to the rest of the application.
//
// Transient failures (rate limits, server errors, network problems) are retried
// with exponential backoff and jitter. Responses blocked by safety filters and
// empty responses are permanent and returned immediately.
package gemini
