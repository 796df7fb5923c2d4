package application

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minTitleLength = 3
	maxTitleLength = 255

	minBookingDuration = 15 * time.Minute
	maxBookingDuration = 8 * time.Hour
)

// validateBookingWindow checks the shared title and window rules for
// reservation requests.
func validateBookingWindow(title string, start, end, now time.Time, vErr *ValidationError) {
	trimmed := strings.TrimSpace(title)
	if length := utf8.RuneCountInString(trimmed); length < minTitleLength {
		vErr.add("title", "title must be at least 3 characters")
	} else if length > maxTitleLength {
		vErr.add("title", "title must be at most 255 characters")
	}

	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if start.IsZero() || end.IsZero() {
		return
	}

	if !start.Before(end) {
		vErr.add("time", "start must be before end")
		return
	}

	duration := end.Sub(start)
	if duration < minBookingDuration {
		vErr.add("time", "booking must be at least 15 minutes")
	} else if duration > maxBookingDuration {
		vErr.add("time", "booking must be at most 8 hours")
	}

	if start.Before(now) {
		vErr.add("start", "start must not be in the past")
	}
}
