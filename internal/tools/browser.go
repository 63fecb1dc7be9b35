package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserSource renders pages in headless Chrome before extraction, for
// sites that build their content with JavaScript. One browser is started
// lazily and shared by every fetch until Close.
type BrowserSource struct {
	UserAgent string
	Timeout   time.Duration
	// ExecPath overrides the Chrome binary chromedp looks up on PATH.
	ExecPath string

	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowserSource(userAgent string, timeout time.Duration) *BrowserSource {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserSource{UserAgent: userAgent, Timeout: timeout}
}

func (b *BrowserSource) initBrowser() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.UserAgent(b.UserAgent),
	)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	if err := chromedp.Run(b.browserCtx); err != nil {
		b.cleanup()
		return err
	}
	return nil
}

func (b *BrowserSource) cleanup() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
}

// Close shuts the shared browser down.
func (b *BrowserSource) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
}

func (b *BrowserSource) HTML(ctx context.Context, rawURL string) (string, error) {
	if err := b.initBrowser(); err != nil {
		return "", fmt.Errorf("failed to initialize browser: %w", err)
	}

	b.mu.Lock()
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	b.mu.Unlock()
	defer tabCancel()

	actionCtx, cancel := context.WithTimeout(tabCtx, b.Timeout)
	defer cancel()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var page string
	err := chromedp.Run(actionCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser render failed: %w", err)
	}
	return page, nil
}
