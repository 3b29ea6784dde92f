// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// CollapseWhitespace folds runs of whitespace, including newlines, into
// single spaces and trims the ends. Feed metadata arrives with hard line
// breaks mid-sentence.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
