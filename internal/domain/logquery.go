package domain

import (
	"strconv"
	"strings"
	"time"
)

// LogFilter narrows an exercise log query. Nil bounds leave the range open;
// Limit <= 0 applies no cap, matching the store's limit semantics.
type LogFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// BuildLogFilter translates raw from/to/limit query parameters into a filter.
// Values that do not parse are ignored rather than rejected; the API has
// always been lenient here and callers rely on it.
func BuildLogFilter(userID, from, to, limit string) LogFilter {
	filter := LogFilter{UserID: userID}

	if ts, ok := ParseDate(from); ok {
		filter.From = &ts
	}
	if ts, ok := ParseDate(to); ok {
		filter.To = &ts
	}
	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n > 0 {
		filter.Limit = n
	}

	return filter
}

// ParseDate accepts day-level (2006-01-02) and RFC 3339 timestamps.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}
