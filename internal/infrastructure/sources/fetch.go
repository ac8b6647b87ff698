package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"PolicyDigest/internal/config"
	"PolicyDigest/internal/ports"
)

// Fetcher performs polite GET requests against source websites.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	loc       *time.Location
	now       func() time.Time
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher from scraper settings. A nil client gets the
// configured timeout.
func NewFetcher(client *http.Client, cfg config.ScraperConfig, loc *time.Location) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout()}
	}
	if loc == nil {
		loc = time.UTC
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
		loc:       loc,
		now:       time.Now,
	}
}

// Document downloads pageURL and parses it as HTML.
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// Text returns the visible text of pageURL with scripts and styles removed.
func (f *Fetcher) Text(ctx context.Context, pageURL string) (string, error) {
	doc, err := f.Document(ctx, pageURL)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text()), nil
}

func (f *Fetcher) year() int {
	return f.now().In(f.loc).Year()
}

// absURL resolves href against base. Absolute hrefs pass through.
func absURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}
	return b.ResolveReference(ref).String()
}

// text collapses whitespace inside a selection's text.
func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// parseTime tries each layout in order.
func parseTime(value string, layouts ...string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
