package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the result at
// maxLen bytes. A maxLen of zero disables the cap.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
