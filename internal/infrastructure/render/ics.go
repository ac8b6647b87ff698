package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"PolicyDigest/internal/domain"
)

// RenderICS writes a one-event calendar file. The URL property prefers the
// original hearing link over the provider page; a missing end becomes one
// hour after start.
func (r *Renderer) RenderICS(w io.Writer, ev domain.PulledEvent, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)

	uid := ev.ID
	if uid == "" {
		uid = fmt.Sprintf("pd-%d", now.Unix())
	}

	start := ev.Start
	if start.IsZero() {
		start = now
	}
	end := ev.End
	if end.IsZero() {
		end = start.Add(time.Hour)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(r.productID)

	event := cal.AddEvent(uid + "@policydigest")
	event.SetDtStampTime(now)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(strings.TrimSpace(strings.ReplaceAll(ev.Title, "\n", " ")))
	if link := firstNonEmpty(ev.OriginalLink, ev.EventURL); link != "" {
		event.SetURL(link)
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		event.SetDescription(desc)
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
