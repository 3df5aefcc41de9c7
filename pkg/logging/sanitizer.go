package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens as sent in Authorization headers.
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// user:pass@ in postgres://, mongodb:// and redis:// URLs.
	userInfoPattern = regexp.MustCompile(`://[^:/\s]*:[^@\s]+@`)
)

// SanitizeURL removes credentials from a store connection URL so it can be
// logged at startup.
func SanitizeURL(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := userInfoPattern.ReplaceAllString(connStr, "://"+RedactedText+"@")
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// SanitizeError returns the error text with credentials and bearer tokens
// removed. Driver errors can echo the connection string they failed on.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := userInfoPattern.ReplaceAllString(err.Error(), "://"+RedactedText+"@")
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
