package schema

import (
	"fmt"
	"strings"
	"time"
)

// isoLayouts are tried in order. Fractional seconds are accepted by every
// layout with a seconds field. Layouts without a zone parse as UTC.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO8601 parses the date/time forms properties.json files are written with
func ParseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 date/time: %q", s)
}
