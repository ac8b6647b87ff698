package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PolicyDigest/internal/scanner"
)

const (
	cmsBase          = "https://www.cms.gov"
	congressBase     = "https://www.congress.gov"
	fdaBase          = "https://www.fda.gov"
	federalRegBase   = "https://www.federalregister.gov"
	hhsBase          = "https://www.hhs.gov"
	reginfoBase      = "https://www.reginfo.gov"
	whiteHouseBase   = "https://www.whitehouse.gov"
	whiteHousePages  = 4
	federalRegSearch = "/public-inspection/search?conditions%5Bagencies%5D%5B%5D=agency-for-healthcare-research-and-quality" +
		"&conditions%5Bagencies%5D%5B%5D=centers-for-medicare-medicaid-services" +
		"&conditions%5Bagencies%5D%5B%5D=children-and-families-administration" +
		"&conditions%5Bagencies%5D%5B%5D=defense-department" +
		"&conditions%5Bagencies%5D%5B%5D=drug-enforcement-administration" +
		"&conditions%5Bagencies%5D%5B%5D=employment-standards-administration" +
		"&conditions%5Bagencies%5D%5B%5D=food-and-drug-administration" +
		"&conditions%5Bagencies%5D%5B%5D=health-and-human-services-department" +
		"&conditions%5Bagencies%5D%5B%5D=health-resources-and-services-administration" +
		"&conditions%5Bagencies%5D%5B%5D=internal-revenue-service" +
		"&conditions%5Bagencies%5D%5B%5D=justice-department" +
		"&conditions%5Bagencies%5D%5B%5D=national-institutes-of-health" +
		"&conditions%5Bagencies%5D%5B%5D=occupational-safety-and-health-administration" +
		"&conditions%5Bagencies%5D%5B%5D=substance-abuse-and-mental-health-services-administration" +
		"&conditions%5Bagencies%5D%5B%5D=treasury-department" +
		"&conditions%5Bagencies%5D%5B%5D=centers-for-disease-control-and-prevention"
	ombDashboard = "/public/jsp/EO/eoDashboard.myjsp?agency_cd=0900&agency_nm=HHS&stage_cd=4&from_page=index.jsp&sub_index=0"
)

var (
	longDateExpr  = regexp.MustCompile(`[A-Z][a-z]+ \d{1,2}, \d{4}`)
	slashDateExpr = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
)

// CMS newsroom.
type cmsNewsroom struct {
	f    *Fetcher
	base string
}

func (a *cmsNewsroom) Name() string { return "news/cms" }

func (a *cmsNewsroom) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + "/about-cms/contact/newsroom"
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("div.views-field.views-field-nothing").Each(func(_ int, s *goquery.Selection) {
		title := text(s.Find("h3").First())
		href, ok := s.Find("a.newsroom-main-view-link").First().Attr("href")
		stamp, hasStamp := s.Find("time").First().Attr("datetime")
		if title == "" || !ok || !hasStamp {
			c.Skip()
			return
		}
		published, err := time.Parse("2006-01-02T15:04:05Z", stamp)
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{Title: title, URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// CMS Innovation Center milestones.
type cmsInnovation struct {
	f    *Fetcher
	base string
}

func (a *cmsInnovation) Name() string { return "news/cms-innovation" }

func (a *cmsInnovation) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + "/priorities/innovation/models/recent-milestones-updates"
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("ul.milestone-updates__results > li.ds-u-display--flex").Each(func(_ int, s *goquery.Selection) {
		dateText := text(s.Find(".cms-news--desktop-date").First())
		title := text(s.Find(".cms-news--title p").First())
		href, ok := s.Find(".cms-news--title a").First().Attr("href")
		if dateText == "" || title == "" || !ok {
			c.Skip()
			return
		}
		published, err := time.Parse("2006-01-02", dateText)
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{Title: title, URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// CRS products, "Recent" column only.
type crsProducts struct {
	f    *Fetcher
	base string
}

func (a *crsProducts) Name() string { return "news/crs" }

func (a *crsProducts) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + "/crs-products"
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	recent := doc.Find("div.column-equal").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Find("h2").First().Text()) == "Recent"
	}).First()
	if recent.Length() == 0 {
		return c.Result(page), nil
	}

	recent.Find("p").Each(func(_ int, p *goquery.Selection) {
		link := p.Find("a").First()
		title := text(p.Find("strong").First())
		href, ok := link.Attr("href")
		matches := longDateExpr.FindAllString(p.Text(), -1)
		if !ok || title == "" || len(matches) == 0 {
			c.Skip()
			return
		}
		published, err := time.Parse("January 2, 2006", matches[len(matches)-1])
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{Title: title, URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// Congress.gov legislation search, dated by latest action.
type congressLegislation struct {
	f    *Fetcher
	base string
}

func (a *congressLegislation) Name() string { return "news/congress" }

func (a *congressLegislation) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + "/search?q=%7B%22source%22%3A%22legislation%22%7D"
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("li.expanded").Each(func(_ int, s *goquery.Selection) {
		title := text(s.Find("span.result-title").First())
		href, ok := s.Find("span.result-heading a").First().Attr("href")
		action := s.Find("span.result-item").FilterFunction(func(_ int, item *goquery.Selection) bool {
			return strings.Contains(item.Text(), "Latest Action:")
		}).First()
		if title == "" || !ok || action.Length() == 0 {
			c.Skip()
			return
		}
		parts := strings.Split(text(action), " - ")
		fields := strings.Fields(parts[len(parts)-1])
		if len(fields) == 0 {
			c.Skip()
			return
		}
		published, err := time.Parse("01/02/2006", fields[0])
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{Title: title, URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// FDA press announcements.
type fdaPress struct {
	f    *Fetcher
	base string
}

func (a *fdaPress) Name() string { return "news/fda" }

func (a *fdaPress) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + "/news-events/fda-newsroom/press-announcements"
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("div.views-field.views-field-title span.field-content").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		href, ok := link.Attr("href")
		stamp, hasStamp := s.Find("time").First().Attr("datetime")
		if !ok || !hasStamp {
			c.Skip()
			return
		}
		published, err := time.Parse("2006-01-02T15:04:05Z", stamp)
		if err != nil {
			c.Skip()
			return
		}
		title := text(link)
		if i := strings.Index(title, " - "); i >= 0 {
			title = strings.TrimSpace(title[i+3:])
		}
		c.Add(scanner.Item{Title: title, URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// Federal Register public inspection desk, filtered to health agencies.
type federalRegister struct {
	f    *Fetcher
	base string
}

func (a *federalRegister) Name() string { return "news/federal-register" }

func (a *federalRegister) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + federalRegSearch
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("li.search-result-document").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("div.document-wrapper h5 a").First()
		href, ok := link.Attr("href")
		meta := s.Find("p.metadata").First()
		matches := slashDateExpr.FindAllString(meta.Text(), -1)
		if !ok || len(matches) == 0 {
			c.Skip()
			return
		}
		published, err := time.Parse("01/02/2006", matches[len(matches)-1])
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{Title: text(link), URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// HHS press room.
type hhsPressRoom struct {
	f    *Fetcher
	base string
}

func (a *hhsPressRoom) Name() string { return "news/hhs" }

func (a *hhsPressRoom) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + "/press-room/index.html"
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("li.usa-collection__item").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.usa-link").First()
		href, ok := link.Attr("href")
		stamp, hasStamp := s.Find("time").First().Attr("datetime")
		if !ok || !hasStamp {
			c.Skip()
			return
		}
		day, _, _ := strings.Cut(stamp, "T")
		published, err := time.Parse("2006-01-02", day)
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{Title: text(link), URL: absURL(a.base, href)}, published, false)
	})
	return c.Result(page), nil
}

// OMB regulatory review dashboard, HHS rules only.
type ombRulemaking struct {
	f    *Fetcher
	base string
}

func (a *ombRulemaking) Name() string { return "news/omb" }

func (a *ombRulemaking) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	page := a.base + ombDashboard
	doc, err := a.f.Document(ctx, page)
	if err != nil {
		return scanner.Result{}, err
	}

	c := scanner.NewCollector(since)
	doc.Find("table.generalTxt").Each(func(_ int, table *goquery.Selection) {
		label := table.Find("b").FilterFunction(func(_ int, b *goquery.Selection) bool {
			return strings.TrimSpace(b.Text()) == "AGENCY:"
		}).First()
		if label.Length() == 0 {
			return
		}
		agency := strings.TrimSpace(strings.Replace(text(label.Parent()), "AGENCY:", "", 1))
		if !strings.HasPrefix(agency, "HHS-") {
			return
		}

		title := text(table.Find("span.TCJATitle").First())
		href, ok := table.Find("td a[href*='eAgendaViewRule']").First().Attr("href")
		stage := cellAfter(table, "STAGE:")
		received := cellAfter(table, "RECEIVED DATE:")
		if title == "" || !ok || stage == "" || received == "" {
			c.Skip()
			return
		}
		published, err := time.Parse("01/02/2006", received)
		if err != nil {
			c.Skip()
			return
		}
		c.Add(scanner.Item{
			Title: fmt.Sprintf("%s - %s", stage, title),
			URL:   absURL(a.base, href),
		}, published, false)
	})
	return c.Result(page), nil
}

// cellAfter returns the text following marker in the first cell containing it.
func cellAfter(table *goquery.Selection, marker string) string {
	cell := table.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return strings.Contains(td.Text(), marker)
	}).Last()
	if cell.Length() == 0 {
		return ""
	}
	parts := strings.Split(cell.Text(), marker)
	return strings.TrimSpace(parts[len(parts)-1])
}

// White House news, paginated until the cutoff is crossed.
type whiteHouseNews struct {
	f    *Fetcher
	base string
}

func (a *whiteHouseNews) Name() string { return "news/white-house" }

func (a *whiteHouseNews) Fetch(ctx context.Context, since time.Time) (scanner.Result, error) {
	c := scanner.NewCollector(since)
	first := fmt.Sprintf("%s/news/page/1/", a.base)

	for page := 1; page <= whiteHousePages; page++ {
		pageURL := fmt.Sprintf("%s/news/page/%d/", a.base, page)
		doc, err := a.f.Document(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return scanner.Result{}, err
			}
			break
		}

		posts := doc.Find("div.wp-block-whitehouse-post-template")
		if posts.Length() == 0 {
			break
		}

		crossed := false
		posts.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			link := s.Find("h2.wp-block-post-title a").First()
			href, ok := link.Attr("href")
			dateText := text(s.Find("div.wp-block-post-date").First())
			if !ok || dateText == "" {
				c.Skip()
				return true
			}
			published, err := time.Parse("January 2, 2006", dateText)
			if err != nil {
				c.Skip()
				return true
			}
			if !c.Add(scanner.Item{Title: text(link), URL: absURL(a.base, href)}, published, false) {
				crossed = true
				return false
			}
			return true
		})
		if crossed {
			break
		}
	}
	return c.Result(first), nil
}
