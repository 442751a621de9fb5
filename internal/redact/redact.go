// Package redact scrubs sensitive fragments from strings before they are
// logged. Errors bubbling up from the database driver, the filesystem, or
// the LLM client can embed connection strings, API keys, tokens, and the
// temp-file paths of staged uploads; none of that belongs in a log line.
package redact

import "regexp"

const (
	credentialPlaceholder = "[REDACTED_CREDENTIAL]"
	keyPlaceholder        = "[REDACTED_KEY]"
	pathPlaceholder       = "[REDACTED_PATH]"
	jwtPlaceholder        = "[REDACTED_JWT]"
)

var rules = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	// Database connection strings with inline credentials.
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database)://[^@\s]+@`), credentialPlaceholder},

	// API keys, tokens and secrets in key=value or key: value form.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|passwd)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{6,}`), keyPlaceholder},

	// JWTs: three base64url segments starting with the standard header.
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), jwtPlaceholder},

	// Absolute unix paths, e.g. staged upload locations under the temp dir.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), pathPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, rule := range rules {
		result = rule.pattern.ReplaceAllString(result, rule.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
