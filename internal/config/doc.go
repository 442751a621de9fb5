// Package config defines the application configuration structure and
// loading logic. Configuration is sourced from an optional YAML file and
// from DOCVAULT_-prefixed environment variables, with the environment
// taking precedence, and is validated before use.
package config
