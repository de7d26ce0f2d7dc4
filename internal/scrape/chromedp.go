package scrape

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"assetbot/internal/config"
)

// ChromeRenderer renders pages with a headless Chrome. The storefront builds
// the free-asset section client-side, so a plain GET never sees it.
type ChromeRenderer struct {
	timeout     time.Duration
	userAgent   string
	allocator   context.Context
	allocCancel context.CancelFunc
}

func NewChromeRenderer(cfg config.ScrapeConfig) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if ua := cfg.UserAgent; ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{
		timeout:     config.Duration(cfg.Timeout, 45*time.Second),
		userAgent:   cfg.UserAgent,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close releases the browser allocator.
func (r *ChromeRenderer) Close() {
	r.allocCancel()
}

// Render navigates to url and returns the DOM after the page settles.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, r.timeout)
	defer cancel()

	// Bail out early when the caller's context dies: chromedp contexts
	// descend from the allocator, not from ctx.
	stop := context.AfterFunc(ctx, taskCancel)
	defer stop()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		// The section is injected after the initial paint; give scripts a
		// beat to finish instead of waiting on a selector that may never
		// appear on a partial render.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
