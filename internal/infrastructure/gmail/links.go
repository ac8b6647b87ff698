package gmail

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PolicyDigest/internal/domain"
)

var skipAnchors = []string{"unsubscribe", "manage preferences", "view in browser", "privacy policy"}

// ExtractLinks returns the titled http(s) anchors of a newsletter body in
// document order, first occurrence of each URL only.
func ExtractLinks(html string) []domain.Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var out []domain.Link
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return
		}
		title := strings.Join(strings.Fields(a.Text()), " ")
		if title == "" {
			return
		}
		lowerTitle := strings.ToLower(title)
		for _, skip := range skipAnchors {
			if strings.Contains(lowerTitle, skip) || strings.Contains(lower, skip) {
				return
			}
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		out = append(out, domain.Link{Title: title, URL: href})
	})
	return out
}
