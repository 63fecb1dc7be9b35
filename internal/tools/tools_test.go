package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type brokenBackend struct{}

func (brokenBackend) search(context.Context, string, int) ([]SearchResult, error) {
	return nil, errors.New("network unreachable")
}

func TestSearch_ErrorBecomesSingleResult(t *testing.T) {
	s := &SearchTool{backend: brokenBackend{}}
	results := s.Search(context.Background(), "anything", 5)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Source != SourceError || results[0].URL != "" {
		t.Errorf("Unexpected error result: %+v", results[0])
	}
	if !strings.Contains(results[0].Snippet, "network unreachable") {
		t.Errorf("Expected cause in snippet, got %q", results[0].Snippet)
	}
}

func TestParseDDGText(t *testing.T) {
	text := "Title: Go\nDescription: The Go language\nURL: //duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=x\n\n" +
		"Title: Effective Go\nDescription: Tips\nURL: go.dev/doc/effective_go\n\n"
	results := parseDDGText(text)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d: %+v", len(results), results)
	}
	if results[0].URL != "https://go.dev/" {
		t.Errorf("Expected redirect unwrapped, got %q", results[0].URL)
	}
	if results[1].URL != "https://go.dev/doc/effective_go" {
		t.Errorf("Expected scheme added, got %q", results[1].URL)
	}
	if results[0].Snippet != "The Go language" || results[0].Source != "duckduckgo" {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
	if got := parseDDGText("No good DuckDuckGo Search Results was found"); len(got) != 0 {
		t.Errorf("Expected no results, got %+v", got)
	}
}

func TestInstantAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "rayleigh" || r.URL.Query().Get("format") != "json" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"Heading":"Rayleigh scattering","Abstract":"Scattering of light","AbstractURL":"https://en.wikipedia.org/wiki/Rayleigh_scattering",
			"RelatedTopics":[{"Text":"Mie scattering","FirstURL":"https://duckduckgo.com/Mie"},{"Text":"Sky","FirstURL":"https://duckduckgo.com/Sky"},{"Text":"Tyndall","FirstURL":"https://duckduckgo.com/Tyndall"}]}`)
	}))
	defer srv.Close()

	s := &SearchTool{backend: &InstantAnswer{BaseURL: srv.URL + "/", UserAgent: "test", Client: srv.Client()}}
	results := s.Search(context.Background(), "rayleigh", 3)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Source != "duckduckgo_abstract" || results[1].Source != "duckduckgo_related" {
		t.Errorf("Unexpected sources: %+v", results)
	}
}

func TestScraper_ExtractsAndTruncates(t *testing.T) {
	body := "<html><head><title>T</title><script>var x = 1;</script></head><body><nav>menu</nav>" +
		"<article><h1>Title</h1><p>" + strings.Repeat("Rayleigh scattering makes the sky blue. ", 40) + "</p></article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected user agent header")
		}
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	s := NewScraperTool(NewHTTPSource("", 5*time.Second), 100)
	out := s.FetchText(context.Background(), srv.URL+"/article")
	if out.Failed() {
		t.Fatalf("Unexpected failure: %v", out.Err)
	}
	if len([]rune(out.Text)) > 100 {
		t.Errorf("Expected at most 100 runes, got %d", len([]rune(out.Text)))
	}
	if !strings.Contains(out.Text, "Rayleigh scattering") {
		t.Errorf("Expected article text, got %q", out.Text)
	}
	if strings.Contains(out.Text, "var x") {
		t.Errorf("Script leaked into text: %q", out.Text)
	}
}

func TestScraper_HTTPErrorIsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	out := NewScraperTool(nil, 0).FetchText(context.Background(), srv.URL)
	if !out.Failed() {
		t.Fatal("Expected failure")
	}
	if !strings.HasPrefix(out.String(), "Error fetching webpage: ") {
		t.Errorf("Unexpected text: %q", out.String())
	}
	if out := NewScraperTool(nil, 0).FetchText(context.Background(), "not a url"); !out.Failed() {
		t.Error("Expected invalid url to fail")
	}
}

func TestBrowser_FailedStartIsNotReused(t *testing.T) {
	b := NewBrowserSource("", time.Second)
	b.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")

	for i := 0; i < 2; i++ {
		if _, err := b.HTML(context.Background(), "https://example.com/"); err == nil {
			t.Fatalf("attempt %d: expected a start error", i+1)
		}
		b.mu.Lock()
		ctx := b.browserCtx
		b.mu.Unlock()
		if ctx != nil {
			t.Fatalf("attempt %d: failed browser context was kept", i+1)
		}
	}
	b.Close()
}

func TestPDF_MissingFile(t *testing.T) {
	out := NewPDFTool(0).ExtractText("/does/not/exist.pdf")
	if !strings.HasPrefix(out.String(), "Error reading PDF: ") {
		t.Errorf("Unexpected text: %q", out.String())
	}
}

func TestPacer(t *testing.T) {
	p := NewPacer(30 * time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("Expected pacing of at least 60ms, got %v", elapsed)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	slow := NewPacer(time.Hour)
	_ = slow.Wait(ctx)
	if err := slow.Wait(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("héllo", 2) != "hé" {
		t.Errorf("Unexpected truncation: %q", Truncate("héllo", 2))
	}
	if Truncate("abc", 0) != "abc" {
		t.Error("Zero max should not truncate")
	}
}
