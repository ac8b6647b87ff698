package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

var articleLayouts = []string{
	time.RFC3339,
	DateTimeLayout,
	"2006-01-02T15:04",
	DateLayout,
}

// FormatDate renders a fetched timestamp as a date, or a date-time when the
// source carries a time of day.
func FormatDate(t time.Time, withTime bool) string {
	if withTime {
		return t.Format(DateTimeLayout)
	}
	return t.Format(DateLayout)
}

// ParseArticleDate parses the date strings stored on articles.
func ParseArticleDate(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for _, layout := range articleLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout != DateLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q", value)
}

// ShiftBackOneDay moves a date string one day earlier, keeping its shape.
// Unparseable values are returned unchanged.
func ShiftBackOneDay(value string) string {
	if value == "" {
		return value
	}
	t, withTime, err := ParseArticleDate(value)
	if err != nil {
		return value
	}
	shifted := t.AddDate(0, 0, -1)
	if !withTime {
		return shifted.Format(DateLayout)
	}
	if strings.ContainsAny(value[10:], "Z+") || strings.Count(value[10:], "-") > 0 {
		return shifted.Format(time.RFC3339)
	}
	return shifted.Format(DateTimeLayout)
}

// PrettyDate renders "January 2nd" or "January 2nd at 3:04 PM".
func PrettyDate(value string) string {
	if strings.TrimSpace(value) == "" {
		return "No date"
	}
	t, withTime, err := ParseArticleDate(value)
	if err != nil {
		return value
	}
	base := fmt.Sprintf("%s %d%s", t.Format("January"), t.Day(), ordinalSuffix(t.Day()))
	if withTime {
		return base + " at " + t.Format("3:04 PM")
	}
	return base
}

func ordinalSuffix(day int) string {
	switch day {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	}
	return "th"
}
