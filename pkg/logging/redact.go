package logging

import (
	"regexp"
	"strings"
)

// Build args routinely carry registry tokens and private repo credentials.
// Values under secret-looking keys are replaced before args reach any log.
var sensitiveKeyPattern = regexp.MustCompile(`(?i)(password|passwd|secret|token|key|credential|auth)`)

// valuePattern catches inline "token=..." style secrets inside free-form
// strings. The capture group preserves the prefix.
var valuePattern = regexp.MustCompile(`(?i)((?:password|passwd|secret|api[_-]?key|token|auth[_-]?token)\s*[=:]\s*)\S+`)

// RedactArgs returns a copy of a build-arg map with sensitive values
// replaced by [REDACTED].
func RedactArgs(args map[string]string) map[string]string {
	if args == nil {
		return nil
	}
	redacted := make(map[string]string, len(args))
	for k, v := range args {
		if isSensitiveKey(k) {
			redacted[k] = "[REDACTED]"
		} else {
			redacted[k] = RedactString(v)
		}
	}
	return redacted
}

// RedactString replaces inline secret values in a string.
func RedactString(s string) string {
	return valuePattern.ReplaceAllString(s, "${1}[REDACTED]")
}

func isSensitiveKey(key string) bool {
	return sensitiveKeyPattern.MatchString(strings.ToLower(key))
}
