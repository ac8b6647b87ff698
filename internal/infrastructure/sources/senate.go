package sources

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/scanner"
)

var spanishMarkers = []string{"aviso", "el presidente", "la miembro", "/press-releases/aviso-"}

func committee(name string, f *Fetcher, base string, sections ...section) *pressPage {
	return &pressPage{name: name, f: f, base: base, sections: sections}
}

func agingCommittee(f *Fetcher, base string) *pressPage {
	press := func(doc *goquery.Document, p page, c *scanner.Collector) {
		doc.Find("div.PressBrowser__itemRow").Each(func(_ int, row *goquery.Selection) {
			link := row.Find("a").First()
			href, ok := link.Attr("href")
			stamp, hasStamp := row.Find("time").First().Attr("datetime")
			if !ok || !hasStamp || text(link) == "" {
				c.Skip()
				return
			}
			published, err := time.Parse("2006-01-02", stamp)
			if err != nil {
				c.Skip()
				return
			}
			item := p.item(text(link), href)
			if isSpanish(item.Title, item.URL) {
				return
			}
			c.Add(item, published, false)
		})
	}
	hearings := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "div.LegislationList__item", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("a.LegislationList__link").First()
			href, ok := link.Attr("href")
			parts := lines(row.Find("div.col-12.col-md-auto time").First())
			if len(parts) < 2 {
				return "", "", "", false
			}
			return text(link), href, parts[0] + " " + strings.ToUpper(parts[1]), ok
		}, p, true, "01/02/06 3:04PM", "01/02/06 3:04 PM")
	}
	return committee("senate/aging", f, base,
		section{path: "/press-room/majority", tag: domain.TagMajority, parse: press},
		section{path: "/press-room/minority?expanded=false", tag: domain.TagMinority, parse: press},
		section{path: "/hearings", tag: domain.TagHearing, parse: hearings},
	)
}

// isSpanish filters the Spanish-language duplicates some press rooms publish.
func isSpanish(title, url string) bool {
	for _, r := range title {
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	lowerTitle, lowerURL := strings.ToLower(title), strings.ToLower(url)
	for _, marker := range spanishMarkers {
		if strings.Contains(lowerTitle, marker) || strings.Contains(lowerURL, marker) {
			return true
		}
	}
	return false
}

func appropriationsCommittee(f *Fetcher, base string) *pressPage {
	news := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "table.table tbody tr", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("td a").First()
			href, ok := link.Attr("href")
			stamp, hasStamp := row.Find("td.date time").First().Attr("datetime")
			return text(link), href, stamp, ok && hasStamp
		}, p, false, "2006-01-02")
	}
	return committee("senate/appropriations", f, base,
		section{path: "/news/majority/table", tag: domain.TagMajority, parse: news},
		section{path: "/news/minority/table", tag: domain.TagMinority, parse: news},
		section{path: "/hearings", tag: domain.TagHearing, parse: veventHearings},
	)
}

func budgetCommittee(f *Fetcher, base string) *pressPage {
	return committee("senate/budget", f, base,
		section{path: "/chairman/newsroom/press/table/", tag: domain.TagMajority, parse: browserTable("td a")},
		section{path: "/ranking-member/newsroom/press/table/", tag: domain.TagMinority, parse: browserTable("td a")},
		section{path: "/hearings", tag: domain.TagHearing, parse: veventHearings},
	)
}

func financeCommittee(f *Fetcher, base string) *pressPage {
	return committee("senate/finance", f, base,
		section{path: "/chairmans-news", tag: domain.TagMajority, parse: browserTable("td a")},
		section{path: "/ranking-members-news", tag: domain.TagMinority, parse: browserTable("td a")},
		section{path: "/hearings", tag: domain.TagHearing, parse: veventHearings},
	)
}

func helpCommittee(f *Fetcher, base string) *pressPage {
	press := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "div.PressBrowser__itemRow", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("div.col-12.col-md a").First()
			href, ok := link.Attr("href")
			stamp, hasStamp := row.Find("div.PressBrowser__date time").First().Attr("datetime")
			return text(link), href, stamp, ok && hasStamp
		}, p, false, "January 2, 2006")
	}
	hearings := func(doc *goquery.Document, p page, c *scanner.Collector) {
		doc.Find("div.LegislationList__item").Each(func(_ int, row *goquery.Selection) {
			link := row.Find("a.LegislationList__link").First()
			href, ok := link.Attr("href")
			stamp := row.Find("div.LegislationList__dateCol time").First()
			day, hasDay := stamp.Attr("datetime")
			if !ok || !hasDay || text(link) == "" {
				c.Skip()
				return
			}
			day = strings.TrimSpace(day)
			var clock string
			for _, line := range lines(stamp) {
				lower := strings.ToLower(line)
				if strings.Contains(line, ":") && (strings.Contains(lower, "am") || strings.Contains(lower, "pm")) {
					clock = strings.ToUpper(strings.ReplaceAll(line, " ", ""))
					break
				}
			}
			var (
				published time.Time
				err       error
			)
			if clock != "" {
				published, err = time.Parse("January 2, 2006 3:04PM", day+" "+clock)
			} else {
				published, err = time.Parse("January 2, 2006", day)
			}
			if err != nil {
				c.Skip()
				return
			}
			c.Add(p.item(text(link), href), published, true)
		})
	}
	return committee("senate/help", f, base,
		section{path: "/chair/newsroom/press?expanded=false", tag: domain.TagMajority, parse: press},
		section{path: "/ranking/newsroom/press?expanded=false", tag: domain.TagMinority, parse: press},
		section{path: "/hearings", tag: domain.TagHearing, parse: hearings},
	)
}

// HSGAC prints month and day only; the current year is assumed.
func homelandCommittee(f *Fetcher, base string) *pressPage {
	news := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "div.jet-listing-grid__item", c, func(row *goquery.Selection) (string, string, string, bool) {
			href, ok := row.Find("a.jet-engine-listing-overlay-link").First().Attr("href")
			title := strings.TrimSpace(strings.ReplaceAll(text(row.Find("h5.jet-listing-dynamic-field__content").First()), "➞", ""))
			month := text(row.Find("div.sen-listing-month time").First())
			day := text(row.Find("div.sen-listing-day time").First())
			if month == "" || day == "" {
				return "", "", "", false
			}
			return title, href, fmt.Sprintf("%s %s %d", month, day, p.year), ok
		}, p, false, "Jan 2 2006", "January 2 2006")
	}
	hearings := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "div.jet-listing-grid__item", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("h3.jet-listing-dynamic-field__content a").First()
			href, ok := link.Attr("href")
			day := text(row.Find("div.elementor-element-1c6a5ff .jet-listing-dynamic-field__content").First())
			clock := strings.ToUpper(strings.ReplaceAll(text(row.Find("div.elementor-element-930df5a .jet-listing-dynamic-field__content").First()), " ", ""))
			return text(link), href, strings.TrimSpace(day + " " + clock), ok
		}, p, true, "01/02/2006 3:04PM", "01/02/2006")
	}
	return committee("senate/homeland", f, base,
		section{path: "/media/majority-news/", tag: domain.TagMajority, parse: news},
		section{path: "/media/minority-news/", tag: domain.TagMinority, parse: news},
		section{path: "/hearings/", tag: domain.TagHearing, parse: hearings},
	)
}

func indianAffairsCommittee(f *Fetcher, base string) *pressPage {
	listing := func(withTime bool, layouts ...string) parser {
		return func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.jet-listing-grid__item", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find("div.elementor-heading-title a").First()
				href, ok := link.Attr("href")
				return text(link), href, text(row.Find("div.jet-listing-dynamic-field__content").First()), ok
			}, p, withTime, layouts...)
		}
	}
	return committee("senate/indian-affairs", f, base,
		section{path: "/newsroom/republican-news", tag: domain.TagMajority, parse: listing(false, "January 2, 2006")},
		section{path: "/newsroom/democratic-news", tag: domain.TagMinority, parse: listing(false, "January 2, 2006")},
		section{path: "/hearings", tag: domain.TagHearing, parse: listing(true, "January 2, 2006 at 3:04 PM", "January 2, 2006")},
	)
}

// Judiciary hearing times are published in UTC and shown in local time.
func judiciaryCommittee(f *Fetcher, base string) *pressPage {
	press := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "li.PageList__item", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("a.ArticleBlockLink").First()
			href, ok := link.Attr("href")
			return text(link.Find("h2").First()), href, text(row.Find("p.Heading--time").First()), ok
		}, p, false, "01.02.2006")
	}
	hearings := func(doc *goquery.Document, p page, c *scanner.Collector) {
		doc.Find("div.LegislationList__item").Each(func(_ int, row *goquery.Selection) {
			link := row.Find("a.LegislationList__title").First()
			href, ok := link.Attr("href")
			stamp, hasStamp := row.Find("div.LegislationList__colDate time").First().Attr("datetime")
			if !ok || !hasStamp || text(link) == "" {
				c.Skip()
				return
			}
			utc, err := time.Parse("2006-01-02T15:04:05Z", stamp)
			if err != nil {
				c.Skip()
				return
			}
			local := utc.In(p.loc)
			c.Add(p.item(text(link), href), local, true)
		})
	}
	return committee("senate/judiciary", f, base,
		section{path: "/press/majority?expanded=true", tag: domain.TagMajority, parse: press},
		section{path: "/press/minority?expanded=true", tag: domain.TagMinority, parse: press},
		section{path: "/committee-activity/hearings", tag: domain.TagHearing, parse: hearings},
	)
}

func smallBusinessCommittee(f *Fetcher, base string) *pressPage {
	news := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "table.table.recordList tbody tr", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("td.recordListTitle a").First()
			href, ok := link.Attr("href")
			return text(link), href, text(row.Find("td.recordListDate").First()), ok
		}, p, false, "01/02/06")
	}
	hearings := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "table.table.recordList tbody tr", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("td.recordListTitle a").First()
			href, ok := link.Attr("href")
			clock := text(row.Find("td.recordListTime").First())
			if clock == "" {
				clock = "12:00 AM"
			}
			return text(link), href, text(row.Find("td.recordListDate").First()) + " " + clock, ok
		}, p, true, "01/02/06 3:04 PM")
	}
	return committee("senate/small-business", f, base,
		section{path: "/public/index.cfm/republicanpressreleases", tag: domain.TagMajority, parse: news},
		section{path: "/public/index.cfm/democraticpressreleases", tag: domain.TagMinority, parse: news},
		section{path: "/public/index.cfm/hearings", tag: domain.TagHearing, parse: hearings},
	)
}

// Veterans' Affairs hearings omit the year; the current one is assumed.
func veteransCommittee(f *Fetcher, base string) *pressPage {
	news := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "div.element", c, func(row *goquery.Selection) (string, string, string, bool) {
			href, ok := row.Find("a.media-list-body-link").First().Attr("href")
			title := text(row.Find(".post-media-list-title").First())
			return title, href, text(row.Find(".post-media-list-date").First()), ok
		}, p, false, "January 2, 2006", "Jan 2, 2006")
	}
	hearings := func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "div.hearing-list-item", c, func(row *goquery.Selection) (string, string, string, bool) {
			href, ok := row.Find("a").First().Attr("href")
			title := text(row.Find("div.hearing-list-title").First())
			parts := lines(row.Find("span.hearing-list-datetime").First())
			if len(parts) < 2 {
				return "", "", "", false
			}
			clock := strings.ToUpper(strings.ReplaceAll(parts[1], " ", ""))
			return title, href, fmt.Sprintf("%s %d %s", parts[0], p.year, clock), ok
		}, p, true, "Jan 2 2006 3:04PM", "January 2 2006 3:04PM")
	}
	return committee("senate/veterans", f, base,
		section{path: "/majority-news", tag: domain.TagMajority, parse: news},
		section{path: "/minority-news", tag: domain.TagMinority, parse: news},
		section{path: "/hearings", tag: domain.TagHearing, parse: hearings},
	)
}

// lines returns the trimmed, non-empty text nodes under sel in document order.
func lines(sel *goquery.Selection) []string {
	var out []string
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			if line := strings.TrimSpace(node.Text()); line != "" {
				out = append(out, line)
			}
			return
		}
		out = append(out, lines(node)...)
	})
	return out
}
