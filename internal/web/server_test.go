package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/infrastructure/storage"
	"PolicyDigest/internal/ports"
	"PolicyDigest/internal/usecase"
)

type stubLoader struct{}

func (stubLoader) Load(_ context.Context, stage domain.Stage, _ time.Time, _ bool) (ports.Batch, error) {
	if stage != domain.StageNews {
		return ports.Batch{}, nil
	}
	return ports.Batch{
		Articles: []domain.Article{{
			ID:     domain.ContentID("CMS", "https://cms.gov/a"),
			Title:  "CMS Rule X",
			URL:    "https://cms.gov/a",
			Date:   "2024-01-10",
			Source: "CMS",
		}},
		Groups: []ports.Group{{Key: "CMS", Title: "CMS", URL: "https://cms.gov/newsroom"}},
	}, nil
}

type fixedLabeler struct{}

func (fixedLabeler) Categorize(context.Context, string, bool) domain.Label {
	return domain.LabelCongress
}

type pdfStub struct{}

func (pdfStub) RenderDigest(w io.Writer, _ ports.Digest) error {
	_, err := io.WriteString(w, "%PDF-1.7")
	return err
}

type fakeCalendar struct {
	created usecase.CreateResult
	err     error
	events  []domain.PulledEvent
}

func (f *fakeCalendar) CreateFromURL(context.Context, string) (usecase.CreateResult, error) {
	return f.created, f.err
}

func (f *fakeCalendar) Pull(_ context.Context, from, to time.Time) ([]domain.PulledEvent, error) {
	if to.Before(from) {
		return nil, usecase.ErrInvalidRange
	}
	return f.events, nil
}

func (f *fakeCalendar) GroupByDay(events []domain.PulledEvent) []usecase.DayGroup {
	if len(events) == 0 {
		return nil
	}
	return []usecase.DayGroup{{Label: "Friday, March 1st", Events: events}}
}

func (f *fakeCalendar) PDF(_ context.Context, _, _ time.Time, w io.Writer) error {
	if len(f.events) == 0 {
		return usecase.ErrNoEvents
	}
	_, err := io.WriteString(w, "%PDF-1.7")
	return err
}

func (f *fakeCalendar) ICS(_ context.Context, id string, w io.Writer) error {
	if id != "42" {
		return errors.New("not found")
	}
	_, err := io.WriteString(w, "BEGIN:VCALENDAR")
	return err
}

func (f *fakeCalendar) Location() *time.Location { return time.UTC }

type client struct {
	t      *testing.T
	server *Server
	cookie *http.Cookie
}

func newClient(t *testing.T, cal *fakeCalendar) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	curation := usecase.NewCuration(usecase.CurationDeps{
		Sessions: storage.NewMemorySessionStore(),
		Cache:    storage.NewArticleCache(),
		Loader:   stubLoader{},
		Labeler:  fixedLabeler{},
		Renderer: pdfStub{},
	})
	if cal == nil {
		cal = &fakeCalendar{}
	}
	srv, err := NewServer(curation, cal, Options{})
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return &client{t: t, server: srv}
}

func (c *client) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.server.Handler().ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "pd_session" {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, nil, "")
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

func TestHealthz(t *testing.T) {
	c := newClient(t, nil)
	w := c.get("/healthz")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestSessionCookieIsIssuedAndKept(t *testing.T) {
	c := newClient(t, nil)
	c.get("/pipeline/start")
	if c.cookie == nil || !validSessionID(c.cookie.Value) || !c.cookie.HttpOnly {
		t.Fatalf("expected an http-only uuid session cookie, got %+v", c.cookie)
	}
	first := c.cookie.Value
	c.get("/")
	if c.cookie.Value != first {
		t.Fatalf("session id changed from %s to %s", first, c.cookie.Value)
	}
}

func TestWizardFlow(t *testing.T) {
	c := newClient(t, nil)

	expectRedirect(t, c.post("/pipeline/start", url.Values{"start_date": {"2024-01-05"}}), "/pipeline/gmail")

	if w := c.get("/pipeline/news"); !strings.Contains(w.Body.String(), "not loaded yet") {
		t.Fatalf("stage must not be ready before load: %s", w.Body.String())
	}
	expectRedirect(t, c.post("/pipeline/news", url.Values{"action": {"load"}}), "/pipeline/news")
	page := c.get("/pipeline/news").Body.String()
	if !strings.Contains(page, "CMS Rule X") || !strings.Contains(page, `name="n_count"`) {
		t.Fatalf("loaded page missing items: %s", page)
	}

	id := domain.ContentID("CMS", "https://cms.gov/a")
	expectRedirect(t, c.post("/pipeline/news", url.Values{
		"action":    {"next"},
		"selected":  {id},
		"n_count":   {"2"},
		"n_title_0": {"Hand entered"},
		"n_url_0":   {"https://example.gov/manual"},
		"n_date_0":  {"2024-01-12"},
	}), "/pipeline/house")

	if w := c.get("/pipeline/review"); w.Code != http.StatusSeeOther {
		t.Fatalf("review before categorize must redirect, got %d", w.Code)
	}
	cat := c.get("/pipeline/categorize").Body.String()
	if !strings.Contains(cat, "2 selected") {
		t.Fatalf("categorize page must count selections: %s", cat)
	}
	expectRedirect(t, c.post("/pipeline/categorize", nil), "/pipeline/review")

	review := c.get("/pipeline/review").Body.String()
	if !strings.Contains(review, "CMS Rule X") || !strings.Contains(review, "Hand entered") || !strings.Contains(review, "Review (2)") {
		t.Fatalf("review page missing items: %s", review)
	}

	move := `{"id":"` + id + `","from":"` + string(domain.LabelCongress) + `","to":"` + string(domain.LabelMedicare) + `","position":0}`
	if w := c.do(http.MethodPost, "/pipeline/move", strings.NewReader(move), "application/json"); w.Code != http.StatusOK {
		t.Fatalf("move failed: %d %s", w.Code, w.Body.String())
	}
	bad := `{"id":"` + id + `","to":"Gossip"}`
	if w := c.do(http.MethodPost, "/pipeline/move", strings.NewReader(bad), "application/json"); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown label must be rejected, got %d", w.Code)
	}

	expectRedirect(t, c.post("/pipeline/rename", url.Values{"id": {id}, "title": {"Renamed rule"}}), "/pipeline/review")
	expectRedirect(t, c.post("/pipeline/sublinks", url.Values{"id": {id}, "url": {"https://cms.gov/fact-sheet"}}), "/pipeline/review")
	review = c.get("/pipeline/review").Body.String()
	if !strings.Contains(review, "Renamed rule") || !strings.Contains(review, "https://cms.gov/fact-sheet") {
		t.Fatalf("review edits missing: %s", review)
	}
	expectRedirect(t, c.post("/pipeline/sublinks/remove", url.Values{"id": {id}, "index": {"0"}}), "/pipeline/review")
	if w := c.post("/pipeline/sublinks/remove", url.Values{"id": {id}, "index": {"7"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("out of range sublink must be rejected, got %d", w.Code)
	}

	pdf := c.get("/pipeline/export.pdf")
	if pdf.Code != http.StatusOK || pdf.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected export %d %s", pdf.Code, pdf.Header().Get("Content-Type"))
	}

	expectRedirect(t, c.post("/pipeline/reset", nil), "/pipeline/start")
	if w := c.get("/pipeline/export.pdf"); w.Code != http.StatusConflict {
		t.Fatalf("export after reset must fail, got %d", w.Code)
	}
}

func TestStartRejectsBadDate(t *testing.T) {
	c := newClient(t, nil)
	w := c.post("/pipeline/start", url.Values{"start_date": {"01/05/2024"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "class=\"error\"") {
		t.Fatalf("expected 400 with an error, got %d", w.Code)
	}
}

func TestStageRejectsUnknownAction(t *testing.T) {
	c := newClient(t, nil)
	if w := c.post("/pipeline/house", url.Values{"action": {"explode"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestEventRoutes(t *testing.T) {
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{
		created: usecase.CreateResult{
			Event: domain.CreatedEvent{ID: "42", URL: "https://addevent.com/42", Deduped: true},
			Draft: domain.EventDraft{Title: "Budget Hearing", Start: start},
		},
		events: []domain.PulledEvent{{ID: "42", Title: "Budget Hearing", Start: start, OriginalLink: "https://budget.house.gov/h"}},
	}
	c := newClient(t, cal)

	w := c.post("/events", url.Values{"url": {"https://budget.house.gov/h"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Already on the calendar") {
		t.Fatalf("unexpected create page %d %s", w.Code, w.Body.String())
	}

	cal.err = usecase.ErrExtractFailed
	if w := c.post("/events", url.Values{"url": {"https://budget.house.gov/h"}}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("extract failure must be 422, got %d", w.Code)
	}

	pulled := c.get("/events/pull?start=2024-03-01&end=2024-03-02").Body.String()
	if !strings.Contains(pulled, "Friday, March 1st") || !strings.Contains(pulled, "3:00 PM") {
		t.Fatalf("pull page missing events: %s", pulled)
	}
	if w := c.get("/events/pull?start=2024-03-05&end=2024-03-01"); w.Code != http.StatusBadRequest {
		t.Fatalf("reversed range must be 400, got %d", w.Code)
	}
	if w := c.get("/events/pull?start=March"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date must be 400, got %d", w.Code)
	}

	pdf := c.get("/events/pull.pdf?start=2024-03-01&end=2024-03-01")
	if pdf.Code != http.StatusOK || !strings.Contains(pdf.Header().Get("Content-Disposition"), "hearings-2024-03-01-2024-03-01.pdf") {
		t.Fatalf("unexpected pdf response %d %v", pdf.Code, pdf.Header())
	}

	ics := c.get("/events/42/ics")
	if ics.Code != http.StatusOK || !strings.HasPrefix(ics.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("unexpected ics response %d %v", ics.Code, ics.Header())
	}

	cal.events = nil
	if w := c.get("/events/pull.pdf?start=2024-03-01"); w.Code != http.StatusNotFound {
		t.Fatalf("empty range pdf must be 404, got %d", w.Code)
	}
}
