package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Operations OperationsConfig `mapstructure:"operations" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// MaxUploadMB bounds the total size of a bulk import request body.
	MaxUploadMB int `mapstructure:"max_upload_mb" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	// JWTSecret is the HMAC key used to verify access tokens minted by the
	// upstream identity service. Tokens are never issued by this server.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains all settings for the Gemini comparison generator.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// PromptTemplatePath optionally overrides the embedded comparison
	// prompt template.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`

	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// OperationsConfig tunes the asynchronous operation core: the worker pool
// that executes background operations and the retention of their status
// records.
type OperationsConfig struct {
	// WorkerCount bounds how many operations run concurrently. Unbounded
	// concurrency would let a burst of imports exhaust the database and
	// the LLM quota, so the pool is always fixed-size.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// QueueSize is the buffer of accepted-but-not-started operations.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`

	// RetentionMinutes is how long a status record stays pollable after
	// its last update before it is evicted.
	RetentionMinutes int `mapstructure:"retention_minutes" validate:"required,gt=0"`

	// SweepIntervalMinutes is how often expired records are physically
	// removed. Reads treat expired entries as absent regardless, so this
	// only bounds memory growth.
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
}
