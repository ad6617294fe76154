// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// The Config value is built once at process start and passed by reference to
// the constructors of the poller, the orchestrator and the adapters; nothing in
// the module reads configuration from package-level state.
package config
