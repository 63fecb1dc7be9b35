package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// SearchResult is one hit from a search provider.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// SourceError marks the synthetic result returned when a search fails.
const SourceError = "error"

type searchBackend interface {
	search(ctx context.Context, query string, n int) ([]SearchResult, error)
}

type SearchTool struct {
	backend searchBackend
}

// NewSearchTool selects a provider: "duckduckgo" scrapes results through
// langchaingo, "duckduckgo_api" uses the instant-answer JSON API.
func NewSearchTool(provider, userAgent string) (*SearchTool, error) {
	if userAgent == "" {
		userAgent = duckduckgo.DefaultUserAgent
	}
	switch provider {
	case "", "duckduckgo":
		return &SearchTool{backend: ddgScrape{userAgent: userAgent}}, nil
	case "duckduckgo_api":
		return &SearchTool{backend: &InstantAnswer{
			BaseURL:   "https://api.duckduckgo.com/",
			UserAgent: userAgent,
			Client:    &http.Client{Timeout: 15 * time.Second},
		}}, nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}

func (s *SearchTool) Name() string {
	return "web_search"
}

// Search never fails: errors come back as a single result with Source "error".
func (s *SearchTool) Search(ctx context.Context, query string, numResults int) []SearchResult {
	if numResults <= 0 {
		numResults = 5
	}
	results, err := s.backend.search(ctx, query, numResults)
	if err != nil {
		return []SearchResult{{
			Title:   "Search Error",
			URL:     "",
			Snippet: fmt.Sprintf("Could not perform search: %v", err),
			Source:  SourceError,
		}}
	}
	if len(results) > numResults {
		results = results[:numResults]
	}
	return results
}

type ddgScrape struct {
	userAgent string
}

func (d ddgScrape) search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	ddg, err := duckduckgo.New(n, d.userAgent)
	if err != nil {
		return nil, err
	}
	res, err := ddg.Call(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return parseDDGText(res), nil
}

// parseDDGText turns langchaingo's "Title:/Description:/URL:" blocks back into results.
func parseDDGText(text string) []SearchResult {
	var results []SearchResult
	var cur SearchResult
	flush := func() {
		if cur.Title != "" || cur.URL != "" {
			cur.Source = "duckduckgo"
			cur.URL = normalizeResultURL(cur.URL)
			results = append(results, cur)
		}
		cur = SearchResult{}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "Title:"):
			if cur.Title != "" {
				flush()
			}
			cur.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		case strings.HasPrefix(line, "Description:"):
			cur.Snippet = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case strings.HasPrefix(line, "URL:"):
			cur.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
		}
	}
	flush()
	return results
}

// normalizeResultURL unwraps DuckDuckGo redirect links and adds a scheme.
func normalizeResultURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	if u, err := url.Parse(raw); err == nil {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
		if u.Scheme == "" {
			return "https://" + raw
		}
	}
	return raw
}

// InstantAnswer queries the DuckDuckGo instant-answer API.
type InstantAnswer struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

type instantAnswerResponse struct {
	Heading       string `json:"Heading"`
	Abstract      string `json:"Abstract"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (a *InstantAnswer) search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	var data instantAnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var results []SearchResult
	if data.Abstract != "" {
		title := data.Heading
		if title == "" {
			title = "DuckDuckGo Abstract"
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     data.AbstractURL,
			Snippet: data.Abstract,
			Source:  "duckduckgo_abstract",
		})
	}
	for i, topic := range data.RelatedTopics {
		if i >= n-1 {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:   Truncate(topic.Text, 100) + "...",
			URL:     topic.FirstURL,
			Snippet: topic.Text,
			Source:  "duckduckgo_related",
		})
	}
	return results, nil
}
