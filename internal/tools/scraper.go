package tools

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// PageSource returns the raw HTML of a page.
type PageSource interface {
	HTML(ctx context.Context, rawURL string) (string, error)
}

// ScraperTool fetches a page and extracts its readable text.
type ScraperTool struct {
	Source   PageSource
	MaxChars int
	policy   *bluemonday.Policy
}

// NewScraperTool builds a fetcher. A nil source fetches over plain HTTP.
func NewScraperTool(source PageSource, maxChars int) *ScraperTool {
	if source == nil {
		source = NewHTTPSource("", 10*time.Second)
	}
	if maxChars <= 0 {
		maxChars = 5000
	}
	return &ScraperTool{
		Source:   source,
		MaxChars: maxChars,
		policy:   bluemonday.StrictPolicy(),
	}
}

func (s *ScraperTool) Name() string {
	return "fetch"
}

// FetchText returns at most MaxChars runes of the page's main text.
func (s *ScraperTool) FetchText(ctx context.Context, rawURL string) Outcome {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsedURL.Host == "" {
		return failed("Error fetching webpage", fmt.Errorf("invalid url %q", rawURL))
	}

	page, err := s.Source.HTML(ctx, parsedURL.String())
	if err != nil {
		return failed("Error fetching webpage", err)
	}

	var text string
	article, err := readability.FromReader(strings.NewReader(page), parsedURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		text = article.TextContent
	} else {
		text = page
	}

	// Sanitize output (remove any remaining HTML tags or scripts)
	text = html.UnescapeString(s.policy.Sanitize(stripScripts(text)))
	text = collapseWhitespace(text)
	if text == "" {
		return failed("Error fetching webpage", fmt.Errorf("no readable text at %s", parsedURL))
	}
	return Outcome{Text: Truncate(text, s.MaxChars)}
}

var (
	reScript = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
)

// stripScripts drops script and style bodies, which StrictPolicy keeps as text.
func stripScripts(s string) string {
	s = reScript.ReplaceAllString(s, " ")
	return reStyle.ReplaceAllString(s, " ")
}

// HTTPSource fetches pages with a plain GET.
type HTTPSource struct {
	UserAgent string
	Client    *http.Client
}

func NewHTTPSource(userAgent string, timeout time.Duration) *HTTPSource {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPSource{
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

func (h *HTTPSource) HTML(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.UserAgent)

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	// Cap the body so a huge page cannot exhaust memory before truncation.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}
