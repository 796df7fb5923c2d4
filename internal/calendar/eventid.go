package calendar

import (
	"regexp"
	"strings"
)

var recurrenceSuffix = regexp.MustCompile(`^(.*)_\d{8}(?:T\d{6}Z)?$`)

// NormalizeEventID returns the canonical form of an event identifier. The
// backend accepts both bare ids and fully-qualified "id@domain" forms; the
// ledger keys on the qualified form so the two never produce separate records.
func NormalizeEventID(eventID string) string {
	value := strings.TrimSpace(eventID)
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "@") {
		return value + "@google.com"
	}
	return value
}

// BaseEventID strips the instance suffix from a recurring-event instance id
// (trailing _YYYYMMDD or _YYYYMMDDTHHMMSSZ). Instances of the same series
// share a base id.
func BaseEventID(eventID string) string {
	if eventID == "" {
		return eventID
	}
	if match := recurrenceSuffix.FindStringSubmatch(eventID); match != nil {
		return match[1]
	}
	return eventID
}

// EventIDVariants lists the identifier forms to try when fetching an event:
// the canonical qualified id first, then the bare API id.
func EventIDVariants(eventID string) []string {
	canonical := NormalizeEventID(eventID)
	if canonical == "" {
		return nil
	}
	variants := []string{canonical}
	if at := strings.Index(canonical, "@"); at > 0 {
		bare := canonical[:at]
		if bare != canonical {
			variants = append(variants, bare)
		}
	}
	return variants
}
