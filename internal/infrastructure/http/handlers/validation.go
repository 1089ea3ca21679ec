package handlers

import "strings"

// Validation limits.
const (
	MaxNameLength         = 255
	MaxPlatformNameLength = 64
)

// SanitizeName trims surrounding whitespace; returns empty if over max length.
func SanitizeName(name string, max int) string {
	s := strings.TrimSpace(name)
	if len(s) > max {
		return ""
	}
	return s
}
