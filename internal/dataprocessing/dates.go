package dataprocessing

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DisplayDateLayout is the dashboard date format, e.g. "Nov 11, 2024"
const DisplayDateLayout = "Jan 2, 2006"

// numericDashDate matches month-day-year with dashes, e.g. "11-11-2024"
var numericDashDate = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`)

// NormalizeDate renders a loosely formatted date as "Jan 2, 2006". Empty
// input stays empty and anything that cannot be parsed is returned unchanged.
func NormalizeDate(raw string) string {
	if raw == "" {
		return ""
	}

	t, ok := parseDate(raw)
	if !ok && numericDashDate.MatchString(raw) {
		t, ok = parseDate(strings.ReplaceAll(raw, "-", "/"))
	}
	if !ok {
		return raw
	}
	return t.Format(DisplayDateLayout)
}

func parseDate(raw string) (t time.Time, ok bool) {
	// dateparse panics on a few malformed inputs
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
