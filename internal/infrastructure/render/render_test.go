package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

func sampleDigest(entries int) ports.Digest {
	section := ports.DigestSection{Heading: string(domain.LabelMedicare)}
	for i := 0; i < entries; i++ {
		section.Entries = append(section.Entries, ports.DigestEntry{
			Title:    "CMS finalizes the physician fee schedule — what it means",
			URL:      "https://www.cms.gov/newsroom/fact-sheets/calendar-year-2024-physician-fee-schedule-final-rule",
			Date:     "January 10th",
			Sublinks: []domain.Link{{Title: "Fact sheet", URL: "https://cms.gov/f"}},
		})
	}
	return ports.Digest{Title: "Policy Digest", Sections: []ports.DigestSection{section}}
}

func TestWrapRespectsWidth(t *testing.T) {
	t.Parallel()

	lines := wrap(strings.Repeat("medicaid ", 40), detailStyle)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %d lines", len(lines))
	}
	limit := int((pageWidth - 2*margin - detailStyle.indent) / (detailStyle.size * 0.5))
	for _, ln := range lines {
		if len(ln.text) > limit {
			t.Fatalf("line longer than %d: %q", limit, ln.text)
		}
	}
	if lines[1].style.gap != 0 {
		t.Fatalf("gap applies to the first line only")
	}
}

func TestPageLayoutPaginates(t *testing.T) {
	t.Parallel()

	layout := pageLayout(digestLines(sampleDigest(40)))
	pages := layout["pages"].(map[string]any)
	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}
	if layout["paper"] != "Letter" {
		t.Fatalf("unexpected paper %v", layout["paper"])
	}
}

func TestWinAnsiFoldsPunctuation(t *testing.T) {
	t.Parallel()

	if got := winAnsi("Senate’s “big” bill — 中"); got != `Senate's "big" bill - ?` {
		t.Fatalf("unexpected fold %q", got)
	}
}

func TestRenderDigestWritesPDF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewRenderer("").RenderDigest(&buf, sampleDigest(3)); err != nil {
		t.Fatalf("RenderDigest error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestRenderICS(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*60*60)
	ev := domain.PulledEvent{
		ID:           "42",
		Title:        "Budget\nhearing",
		Description:  "https://budget.house.gov/hearing",
		Start:        time.Date(2024, 3, 1, 10, 0, 0, 0, loc),
		OriginalLink: "https://budget.house.gov/hearing",
		EventURL:     "https://addevent.com/e/42",
	}

	var buf bytes.Buffer
	if err := NewRenderer("").RenderICS(&buf, ev, loc); err != nil {
		t.Fatalf("RenderICS error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"UID:42@policydigest",
		"DTSTART:20240301T150000Z",
		"DTEND:20240301T160000Z",
		"SUMMARY:Budget hearing",
		"URL:https://budget.house.gov/hearing",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}
