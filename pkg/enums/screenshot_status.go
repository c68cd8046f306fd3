package enums

import "fmt"

// ScreenshotStatus tracks the review state of an uploaded payment proof.
type ScreenshotStatus string

const (
	ScreenshotStatusPending  ScreenshotStatus = "pending"
	ScreenshotStatusVerified ScreenshotStatus = "verified"
	ScreenshotStatusRejected ScreenshotStatus = "rejected"
)

var validScreenshotStatuses = []ScreenshotStatus{
	ScreenshotStatusPending,
	ScreenshotStatusVerified,
	ScreenshotStatusRejected,
}

// String implements fmt.Stringer.
func (s ScreenshotStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScreenshotStatus.
func (s ScreenshotStatus) IsValid() bool {
	for _, candidate := range validScreenshotStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScreenshotStatus converts raw input into a ScreenshotStatus.
func ParseScreenshotStatus(value string) (ScreenshotStatus, error) {
	for _, candidate := range validScreenshotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid screenshot status %q", value)
}
