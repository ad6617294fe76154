package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server           ServerConfig           `mapstructure:"server"            validate:"required"`
	Auth             AuthConfig             `mapstructure:"auth"`
	LLM              LLMConfig              `mapstructure:"llm"               validate:"required"`
	DocumentAnalysis DocumentAnalysisConfig `mapstructure:"document_analysis" validate:"required"`
	Orchestrator     OrchestratorConfig     `mapstructure:"orchestrator"      validate:"required"`
	Diagnostics      DiagnosticsConfig      `mapstructure:"diagnostics"       validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel        string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// AuthConfig contains authentication settings. An empty JWTSecret disables
// bearer-token authentication on the API routes.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// Enabled reports whether bearer-token authentication is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string  `mapstructure:"model_name"          validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"gte=0,lte=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// DocumentAnalysisConfig configures the external OCR / document analysis
// service and the poller that drives its asynchronous jobs.
type DocumentAnalysisConfig struct {
	Endpoint           string `mapstructure:"endpoint"                validate:"omitempty,url"`
	APIKey             string `mapstructure:"api_key"`
	ModelID            string `mapstructure:"model_id"                validate:"required"`
	APIVersion         string `mapstructure:"api_version"             validate:"required"`
	PollIntervalMillis int    `mapstructure:"poll_interval_ms"        validate:"gt=0"`
	MaxPollAttempts    int    `mapstructure:"max_poll_attempts"       validate:"gt=0"`
	RequestTimeoutSecs int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
}

// Enabled reports whether a document analysis endpoint is configured.
func (d DocumentAnalysisConfig) Enabled() bool {
	return d.Endpoint != "" && d.APIKey != ""
}

// PollInterval returns the configured interval between status polls.
func (d DocumentAnalysisConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalMillis) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout.
func (d DocumentAnalysisConfig) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutSecs) * time.Second
}

// OrchestratorConfig bounds a single fan-out run.
type OrchestratorConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"gte=0"`
}

// Timeout returns the deadline applied to a whole orchestration run.
func (o OrchestratorConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// DiagnosticsConfig selects where per-run diagnostic records are persisted.
type DiagnosticsConfig struct {
	Backend     string `mapstructure:"backend"         validate:"required,oneof=none memory postgres redis"`
	DatabaseURL string `mapstructure:"database_url"    validate:"required_if=Backend postgres"`
	RedisAddr   string `mapstructure:"redis_addr"      validate:"required_if=Backend redis"`
	RedisTTLHrs int    `mapstructure:"redis_ttl_hours" validate:"gte=0"`
	QueueSize   int    `mapstructure:"queue_size"      validate:"gt=0"`
	Workers     int    `mapstructure:"workers"         validate:"gt=0"`
}

// RedisTTL returns how long Redis keeps a diagnostic record.
func (d DiagnosticsConfig) RedisTTL() time.Duration {
	return time.Duration(d.RedisTTLHrs) * time.Hour
}
