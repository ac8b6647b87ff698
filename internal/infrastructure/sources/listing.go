package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/scanner"
)

// page carries what a parser needs besides the document itself.
type page struct {
	url  string
	tag  domain.Tag
	loc  *time.Location
	year int
}

func (p page) item(title, href string) scanner.Item {
	return scanner.Item{Title: title, URL: absURL(p.url, href), Tag: p.tag}
}

// parser extracts listing entries from one downloaded page.
type parser func(doc *goquery.Document, p page, c *scanner.Collector)

// section is one page of a committee site.
type section struct {
	path  string
	tag   domain.Tag
	parse parser
}

// pressPage is a site whose listing lives on one or more pages under a
// common root. A single-section site reports the page URL as its base;
// multi-section sites report the root.
type pressPage struct {
	name     string
	f        *Fetcher
	base     string
	sections []section
}

func (p *pressPage) Name() string { return p.name }

func (p *pressPage) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	c := scanner.NewCollector(since)
	var errs []error

	for _, s := range p.sections {
		pageURL := p.base + s.path
		doc, err := p.f.Document(ctx, pageURL)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.parse(doc, page{url: pageURL, tag: s.tag, loc: p.f.loc, year: p.f.year()}, c)
	}

	if len(errs) == len(p.sections) {
		return scanner.Result{}, fmt.Errorf("%s: %w", p.name, errors.Join(errs...))
	}

	baseURL := p.base
	if len(p.sections) == 1 {
		baseURL = p.base + p.sections[0].path
	}
	return c.Result(baseURL), nil
}

func single(name string, f *Fetcher, base, path string, parse parser) *pressPage {
	return &pressPage{name: name, f: f, base: base, sections: []section{{path: path, parse: parse}}}
}

// rows runs fn over each selected row, skipping rows fn rejects.
func rows(doc *goquery.Document, selector string, c *scanner.Collector, fn func(row *goquery.Selection) (title, href, date string, ok bool), p page, withTime bool, layouts ...string) {
	doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
		title, href, date, ok := fn(row)
		if !ok || title == "" || strings.TrimSpace(href) == "" || date == "" {
			c.Skip()
			return
		}
		published, err := parseTime(date, layouts...)
		if err != nil {
			c.Skip()
			return
		}
		c.Add(p.item(title, href), published, withTime)
	})
}

// evoListing parses the Evo CMS "views-row" template used across many
// committee sites.
func evoListing(rowSel, titleSel, dateSel string) parser {
	return func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, rowSel, c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find(titleSel).First()
			href, ok := link.Attr("href")
			return text(link), href, text(row.Find(dateSel).First()), ok
		}, p, false, "January 2, 2006", "Jan 2, 2006", "01/02/2006", "01.02.2006", "01/02/06")
	}
}

// browserTable parses the "#browser_table" press table template.
func browserTable(linkSel string) parser {
	return func(doc *goquery.Document, p page, c *scanner.Collector) {
		doc.Find("table#browser_table tr").Each(func(_ int, row *goquery.Selection) {
			if row.Find("td").Length() == 0 {
				return
			}
			link := row.Find(linkSel).First()
			href, ok := link.Attr("href")
			stamp, hasStamp := row.Find("td.date time").First().Attr("datetime")
			if !ok || !hasStamp || text(link) == "" {
				c.Skip()
				return
			}
			if len(stamp) > 10 {
				stamp = stamp[:10]
			}
			published, err := time.Parse("2006-01-02", stamp)
			if err != nil {
				c.Skip()
				return
			}
			c.Add(p.item(text(link), href), published, false)
		})
	}
}

// newsblocker parses the "article.newsblocker" template. The date comes from
// the time element's datetime attribute when present, else its text.
func newsblocker(timeSel string) parser {
	return func(doc *goquery.Document, p page, c *scanner.Collector) {
		rows(doc, "article.newsblocker", c, func(row *goquery.Selection) (string, string, string, bool) {
			link := row.Find("h2.newsie-titler a").First()
			href, ok := link.Attr("href")
			stamp := row.Find(timeSel).First()
			date, hasAttr := stamp.Attr("datetime")
			if hasAttr && len(date) >= 10 {
				date = date[:10]
			} else {
				date = text(stamp)
			}
			return text(link), href, date, ok
		}, p, false, "2006-01-02", "January 2, 2006", "Jan 2, 2006")
	}
}

// veventHearings parses the hCalendar hearing table shared by several Senate
// sites.
func veventHearings(doc *goquery.Document, p page, c *scanner.Collector) {
	rows(doc, "tr.vevent", c, func(row *goquery.Selection) (string, string, string, bool) {
		link := row.Find("a.url.summary").First()
		href, ok := link.Attr("href")
		stamp, hasStamp := row.Find("time.dtstart").First().Attr("datetime")
		return text(link), href, stamp, ok && hasStamp
	}, p, true, "2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339, "2006-01-02")
}
