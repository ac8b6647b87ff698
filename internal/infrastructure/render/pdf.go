package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"PolicyDigest/internal/ports"
)

// Letter page geometry in points.
const (
	pageWidth  = 612.0
	pageHeight = 792.0
	margin     = 54.0
)

const (
	fontRegular = "Helvetica"
	fontBold    = "Helvetica-Bold"
)

type style struct {
	font   string
	size   float64
	indent float64
	gap    float64
}

var (
	titleStyle   = style{font: fontBold, size: 18, gap: 10}
	headingStyle = style{font: fontBold, size: 14, gap: 8}
	entryStyle   = style{font: fontBold, size: 11, indent: 10, gap: 4}
	detailStyle  = style{font: fontRegular, size: 9, indent: 20}
	sublinkStyle = style{font: fontRegular, size: 9, indent: 30}
)

type line struct {
	text  string
	style style
}

// Renderer produces the digest PDF and single-event calendar files.
type Renderer struct {
	productID string
}

var (
	_ ports.DigestRenderer = (*Renderer)(nil)
	_ ports.EventRenderer  = (*Renderer)(nil)
)

// NewRenderer builds a renderer stamping productID into calendar files.
func NewRenderer(productID string) *Renderer {
	if productID == "" {
		productID = "-//PolicyDigest//Calendar Pull//EN"
	}
	return &Renderer{productID: productID}
}

// RenderDigest writes doc as a paginated Letter PDF.
func (r *Renderer) RenderDigest(w io.Writer, doc ports.Digest) error {
	layout, err := json.Marshal(pageLayout(digestLines(doc)))
	if err != nil {
		return fmt.Errorf("marshal pdf layout: %w", err)
	}
	if err := api.Create(nil, bytes.NewReader(layout), w, nil); err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	return nil
}

func digestLines(doc ports.Digest) []line {
	var out []line
	out = append(out, wrap(doc.Title, titleStyle)...)
	for _, section := range doc.Sections {
		out = append(out, wrap(section.Heading, headingStyle)...)
		if len(section.Entries) == 0 {
			out = append(out, wrap("No items.", detailStyle)...)
		}
		for _, entry := range section.Entries {
			out = append(out, wrap(entry.Title, entryStyle)...)
			if entry.Date != "" {
				out = append(out, wrap(entry.Date, detailStyle)...)
			}
			if entry.URL != "" {
				out = append(out, wrap(entry.URL, detailStyle)...)
			}
			for _, link := range entry.Sublinks {
				label := link.URL
				if link.Title != "" {
					label = link.Title + " - " + link.URL
				}
				out = append(out, wrap(label, sublinkStyle)...)
			}
		}
	}
	return out
}

// wrap splits text into lines that fit the printable width, using an
// average glyph width of half the font size. The style gap is applied
// before the first line only.
func wrap(text string, st style) []line {
	text = strings.Join(strings.Fields(winAnsi(text)), " ")
	if text == "" {
		return nil
	}
	maxChars := int((pageWidth - 2*margin - st.indent) / (st.size * 0.5))
	if maxChars < 10 {
		maxChars = 10
	}

	var out []line
	current := ""
	flush := func() {
		s := st
		if len(out) > 0 {
			s.gap = 0
		}
		out = append(out, line{text: current, style: s})
		current = ""
	}
	for _, word := range strings.Fields(text) {
		for len(word) > maxChars {
			if current != "" {
				flush()
			}
			current = word[:maxChars]
			word = word[maxChars:]
			flush()
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxChars:
			current += " " + word
		default:
			flush()
			current = word
		}
	}
	if current != "" {
		flush()
	}
	return out
}

// pageLayout positions lines top-down and breaks pages at the bottom margin,
// in the JSON form accepted by pdfcpu's create command.
func pageLayout(lines []line) map[string]any {
	pages := map[string]any{}
	pageNo := 1
	y := pageHeight - margin
	var texts []map[string]any

	emit := func() {
		pages[strconv.Itoa(pageNo)] = map[string]any{
			"content": map[string]any{"text": texts},
		}
	}

	for _, ln := range lines {
		leading := ln.style.size*1.35 + ln.style.gap
		if y-leading < margin && len(texts) > 0 {
			emit()
			pageNo++
			y = pageHeight - margin
			texts = nil
		}
		y -= leading
		texts = append(texts, map[string]any{
			"value": ln.text,
			"pos":   []float64{margin + ln.style.indent, y},
			"font": map[string]any{
				"name": ln.style.font,
				"size": ln.style.size,
			},
		})
	}
	if len(texts) == 0 {
		texts = []map[string]any{}
	}
	emit()

	return map[string]any{
		"paper":  "Letter",
		"origin": "LowerLeft",
		"pages":  pages,
	}
}

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	"…", "...", " ", " ",
)

// winAnsi folds typographic punctuation and replaces runes the standard
// fonts cannot encode.
func winAnsi(s string) string {
	s = punctuation.Replace(s)
	var b strings.Builder
	for _, r := range s {
		if r > 0xFF {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
