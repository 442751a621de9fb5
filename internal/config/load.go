package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables with the DOCVAULT_ prefix.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// A missing config file is fine; everything can come from the
	// environment.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DOCVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// every key we expect explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"server.max_upload_mb",
		"database.url",
		"auth.jwt_secret",
		"llm.gemini_api_key",
		"llm.model_name",
		"llm.prompt_template_path",
		"llm.max_retries",
		"llm.retry_delay_seconds",
		"operations.worker_count",
		"operations.queue_size",
		"operations.retention_minutes",
		"operations.sweep_interval_minutes",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for settings that have sensible
// out-of-the-box behavior. Secrets (database URL, JWT secret, API key)
// deliberately have no defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_upload_mb", 64)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("operations.worker_count", 4)
	v.SetDefault("operations.queue_size", 64)
	v.SetDefault("operations.retention_minutes", 60)
	v.SetDefault("operations.sweep_interval_minutes", 10)
}
