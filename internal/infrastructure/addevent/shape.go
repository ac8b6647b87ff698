package addevent

import (
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"PolicyDigest/internal/domain"
)

var firstURL = regexp.MustCompile(`(?i)https?://[^\s)>\]]+`)

var providerLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ShapeEvent normalizes a provider event. Naive timestamps are read in loc;
// a missing start leaves Start zero.
func ShapeEvent(raw map[string]any, loc *time.Location) domain.PulledEvent {
	if loc == nil {
		loc = time.UTC
	}

	ev := domain.PulledEvent{
		ID:          pick(raw, "id", "event_id", "_id", "uid"),
		Title:       pick(raw, "title", "name", "summary"),
		Description: pick(raw, "description", "body", "details"),
		EventURL:    pick(raw, "landing_page_url", "event_url", "url"),
	}
	if ev.Title == "" {
		ev.Title = "(Untitled Event)"
	}

	ev.Start = ParseTime(pick(raw, "datetime_start", "starts_at", "start_at", "start_time", "start", "when_start"), loc)
	ev.End = ParseTime(pick(raw, "datetime_end", "ends_at", "end_at", "end_time", "end", "when_end"), loc)
	ev.OriginalLink = firstURL.FindString(ev.Description)

	if cal, ok := raw["calendar"].(map[string]any); ok {
		ev.CalendarID = pick(cal, "id", "calendar_id")
	}
	if ev.CalendarID == "" {
		ev.CalendarID = pick(raw, "calendar_id")
	}
	return ev
}

// ParseTime reads the datetime formats the provider emits. Unparseable values
// yield the zero time.
func ParseTime(value string, loc *time.Location) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range providerLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func pick(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
