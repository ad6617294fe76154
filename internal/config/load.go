package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "GENEWISE"

// Options customize how Load discovers configuration.
type Options struct {
	// ConfigFile is an explicit path to a YAML config file. When empty, Load
	// looks for config.yaml in the working directory and silently continues
	// if none is present.
	ConfigFile string
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(opts ...Options) (*Config, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	v := viper.New()
	setDefaults(v)

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags on the given configuration.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("document_analysis.model_id", "prebuilt-layout")
	v.SetDefault("document_analysis.api_version", "2024-11-30")
	v.SetDefault("document_analysis.poll_interval_ms", 1000)
	v.SetDefault("document_analysis.max_poll_attempts", 45)
	v.SetDefault("document_analysis.request_timeout_seconds", 30)

	v.SetDefault("orchestrator.timeout_seconds", 90)
	v.SetDefault("orchestrator.max_concurrency", 0)

	v.SetDefault("diagnostics.backend", "none")
	v.SetDefault("diagnostics.redis_ttl_hours", 24*30)
	v.SetDefault("diagnostics.queue_size", 64)
	v.SetDefault("diagnostics.workers", 2)
}

// bindEnvs registers every known key so that AutomaticEnv also applies to
// keys with no default and no config-file value.
func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.port", "server.log_level", "server.shutdown_timeout_seconds",
		"auth.jwt_secret",
		"llm.gemini_api_key", "llm.model_name", "llm.temperature",
		"llm.max_retries", "llm.retry_delay_seconds",
		"document_analysis.endpoint", "document_analysis.api_key",
		"document_analysis.model_id", "document_analysis.api_version",
		"document_analysis.poll_interval_ms", "document_analysis.max_poll_attempts",
		"document_analysis.request_timeout_seconds",
		"orchestrator.timeout_seconds", "orchestrator.max_concurrency",
		"diagnostics.backend", "diagnostics.database_url", "diagnostics.redis_addr",
		"diagnostics.redis_ttl_hours", "diagnostics.queue_size", "diagnostics.workers",
	}
	for _, key := range keys {
		// BindEnv only fails when called with no arguments.
		_ = v.BindEnv(key)
	}
}
