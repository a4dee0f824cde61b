package util

import "strings"

// SanitizePostgresText strips NUL bytes and invalid UTF-8 sequences.
// Postgres rejects text values containing either.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
