package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PolicyDigest/internal/config"
)

func newTestFetcher(server *httptest.Server) *Fetcher {
	f := NewFetcher(server.Client(), config.ScraperConfig{UserAgent: "digest-test"}, time.UTC)
	f.now = func() time.Time { return time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC) }
	return f
}

// routes serves fixed bodies by request path, 404 otherwise.
func routes(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetcherSendsUserAgentAndStripsScripts(t *testing.T) {
	t.Parallel()

	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><head><script>var x = 1;</script></head><body><p>Hearing on drug pricing</p></body></html>`))
	}))
	defer server.Close()

	text, err := newTestFetcher(server).Text(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Text error: %v", err)
	}
	if agent != "digest-test" {
		t.Fatalf("unexpected user agent %q", agent)
	}
	if strings.Contains(text, "var x") || !strings.Contains(text, "Hearing on drug pricing") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestFetcherRejectsNon200(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{})
	if _, err := newTestFetcher(server).Document(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestAbsURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base, href, want string
	}{
		{"https://www.cms.gov/newsroom", "/news/a", "https://www.cms.gov/news/a"},
		{"https://edworkforce.house.gov/news/", "documentsingle.aspx?id=1", "https://edworkforce.house.gov/news/documentsingle.aspx?id=1"},
		{"https://www.cms.gov", "https://other.gov/x", "https://other.gov/x"},
		{"https://www.cms.gov", "  ", ""},
	}
	for _, tc := range cases {
		if got := absURL(tc.base, tc.href); got != tc.want {
			t.Fatalf("absURL(%q, %q) = %q, want %q", tc.base, tc.href, got, tc.want)
		}
	}
}
