package sources

import (
	"github.com/PuerkitoBio/goquery"

	"PolicyDigest/internal/scanner"
)

const threeColumnTitle = "div.h3.mt-0.font-weight-bold a"

func appropriationsMajority(f *Fetcher, base string) *pressPage {
	return single("house/appropriations/majority", f, base, "/news/press-releases",
		evoListing("div.views-row", "div.h3 a", "div.row div.col-auto"))
}

func appropriationsMinority(f *Fetcher, base string) *pressPage {
	return single("house/appropriations/minority", f, base, "/news/press-releases",
		evoListing("div.views-row", "div.h3 a", "div.row div.col-auto"))
}

func budgetMajority(f *Fetcher, base string) *pressPage {
	return single("house/budget/majority", f, base, "/news/press-releases/table", browserTable("td a"))
}

// Budget Democrats print the date either in div.date or in the second
// media-body block.
func budgetMinority(f *Fetcher, base string) *pressPage {
	return single("house/budget/minority", f, base, "/news/press-releases",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.views-row", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find("div.h3 a").First()
				href, ok := link.Attr("href")
				date := text(row.Find("div.date").First())
				if date == "" {
					date = text(row.Find("div.media-body > div").Eq(1))
				}
				return text(link), href, date, ok
			}, p, false, "January 2, 2006", "Jan 2, 2006", "01/02/2006")
		})
}

func educationMajority(f *Fetcher, base string) *pressPage {
	return single("house/education/majority", f, base, "/news/", newsblocker("time"))
}

func educationMinority(f *Fetcher, base string) *pressPage {
	return single("house/education/minority", f, base, "/media/press-releases/table", browserTable("a.title"))
}

func energyMajority(f *Fetcher, base string) *pressPage {
	return single("house/energy-commerce/majority", f, base, "/news",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "article.shadow-md", c, func(row *goquery.Selection) (string, string, string, bool) {
				href, ok := row.Find("a.mt-auto").First().Attr("href")
				title := text(row.Find("h3[data-ig-id='card-title']").First())
				date := text(row.Find("div.flex.flex-col.flex-wrap div").First())
				return title, href, date, ok
			}, p, false, "Jan 2, 2006", "January 2, 2006")
		})
}

func energyMinority(f *Fetcher, base string) *pressPage {
	return single("house/energy-commerce/minority", f, base, "/media",
		evoListing("div.views-row", "div.media-body div.h3 a", "div.evo-card-date-bundle span"))
}

func homelandMajority(f *Fetcher, base string) *pressPage {
	return single("house/homeland/majority", f, base, "/press/",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "a.news-post", c, func(row *goquery.Selection) (string, string, string, bool) {
				href, ok := row.Attr("href")
				return text(row.Find("div.title").First()), href, text(row.Find("div.date").First()), ok
			}, p, false, "01/02/06", "01/02/2006")
		})
}

func homelandMinority(f *Fetcher, base string) *pressPage {
	return single("house/homeland/minority", f, base, "/news/press-releases/table/", browserTable("td a"))
}

func jointEconomicMajority(f *Fetcher, base string) *pressPage {
	return single("house/joint-economic/majority", f, base, "/public/index.cfm/republicans/newsroom",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "a[href*='/republicans/newsroom?id=']", c, func(row *goquery.Selection) (string, string, string, bool) {
				href, ok := row.Attr("href")
				return text(row.Find("h3").First()), href, text(row.Find("span.post-date").First()), ok
			}, p, false, "January 2, 2006", "Jan 2, 2006", "01/02/2006")
		})
}

// JEC Democrats split the date into month, day and year spans.
func jointEconomicMinority(f *Fetcher, base string) *pressPage {
	return single("house/joint-economic/minority", f, base, "/public/index.cfm/democrats/media",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "article.clearfix", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find("h1.title a").First()
				href, ok := link.Attr("href")
				stamp := row.Find("span.date").First()
				date := text(stamp.Find("span.month")) + " " + text(stamp.Find("span.day")) + " " + text(stamp.Find("span.year"))
				return text(link), href, date, ok
			}, p, false, "Jan 2 2006", "January 2 2006")
		})
}

func judiciaryMajority(f *Fetcher, base string) *pressPage {
	return single("house/judiciary/majority", f, base, "/media/press-releases",
		evoListing("div.views-row", "div.h3 a", "div.row div.col-auto"))
}

func judiciaryMinority(f *Fetcher, base string) *pressPage {
	return single("house/judiciary/minority", f, base, "/media-center/press-releases",
		evoListing("div.views-row", "div.h5 a", "div.row div.col-auto"))
}

func naturalResourcesMajority(f *Fetcher, base string) *pressPage {
	return single("house/natural-resources/majority", f, base, "/news/documentquery.aspx?DocumentTypeID=1634", newsblocker("time"))
}

// Natural Resources Democrats list a date span followed by its title heading.
func naturalResourcesMinority(f *Fetcher, base string) *pressPage {
	return single("house/natural-resources/minority", f, base, "/media/press-releases",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div#press span.date.black", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.NextAllFiltered("h2.title").First().Find("a").First()
				href, ok := link.Attr("href")
				return text(link), href, text(row), ok
			}, p, false, "01.02.06", "01.02.2006")
		})
}

func oversightMajority(f *Fetcher, base string) *pressPage {
	return single("house/oversight/majority", f, base, "/release/",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.post.featured-post", c, func(row *goquery.Selection) (string, string, string, bool) {
				href, ok := row.Find("a").First().Attr("href")
				stamp, hasStamp := row.Find("time").First().Attr("datetime")
				if len(stamp) > 10 {
					stamp = stamp[:10]
				}
				return text(row.Find("div.title").First()), href, stamp, ok && hasStamp
			}, p, false, "2006-01-02")
		})
}

func oversightMinority(f *Fetcher, base string) *pressPage {
	return single("house/oversight/minority", f, base, "/news/press-releases",
		evoListing("div.views-row.evo-views-row", threeColumnTitle, "div.row .col-auto"))
}

func rulesMajority(f *Fetcher, base string) *pressPage {
	return single("house/rules/majority", f, base, "/media/press-releases",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.views-row", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find("h2.field-content a").First()
				href, ok := link.Attr("href")
				stamp, hasStamp := row.Find("time").First().Attr("datetime")
				return text(link), href, stamp, ok && hasStamp
			}, p, false, "2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05Z")
		})
}

func rulesMinority(f *Fetcher, base string) *pressPage {
	return single("house/rules/minority", f, base, "/media/press-releases",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.evo-views-row", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find(threeColumnTitle).First()
				href, ok := link.Attr("href")
				stamp, hasStamp := row.Find("time").First().Attr("datetime")
				return text(link), href, stamp, ok && hasStamp
			}, p, false, "2006-01-02T15:04:05Z", "2006-01-02T15:04:05Z07:00")
		})
}

func smallBusinessMajority(f *Fetcher, base string) *pressPage {
	return single("house/small-business/majority", f, base, "/news/", newsblocker("div.newsie-details time"))
}

func smallBusinessMinority(f *Fetcher, base string) *pressPage {
	return single("house/small-business/minority", f, base, "/news/press-releases",
		evoListing("div.views-row", "div.h3 a", "div.row div.col-auto"))
}

func veteransMajority(f *Fetcher, base string) *pressPage {
	return single("house/veterans/majority", f, base, "/news/press-releases", newsblocker("time"))
}

func veteransMinority(f *Fetcher, base string) *pressPage {
	return single("house/veterans/minority", f, base, "/news/press-releases",
		evoListing("div.views-row", "div.h3 a", "div.row div.col-auto"))
}

func waysMeansMajority(f *Fetcher, base string) *pressPage {
	return single("house/ways-means/majority", f, base, "/news/",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.news-wrap div.news-item", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find("span.title a").First()
				href, ok := link.Attr("href")
				return text(link), href, text(row.Find("span.date-bar").First()), ok
			}, p, false, "January 2, 2006", "Jan 2, 2006")
		})
}

// Ways and Means Democrats print the date in the block after the title's
// enclosing div.
func waysMeansMinority(f *Fetcher, base string) *pressPage {
	return single("house/ways-means/minority", f, base, "/media-center",
		func(doc *goquery.Document, p page, c *scanner.Collector) {
			rows(doc, "div.views-row div.media-body", c, func(row *goquery.Selection) (string, string, string, bool) {
				link := row.Find("div.h3 a").First()
				href, ok := link.Attr("href")
				date := text(link.Closest("div").NextAllFiltered("div").First())
				return text(link), href, date, ok
			}, p, false, "January 2, 2006", "Jan 2, 2006", "01/02/2006")
		})
}
