package transit

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.PageFetcher = (*BrowserFetcher)(nil)

// BrowserFetcher is tier 2: it launches headless Chrome, renders the page
// and returns the final DOM. A browser process is started and torn down on
// every call.
type BrowserFetcher struct {
	timeout   time.Duration
	userAgent string
	execPath  string
}

// NewBrowserFetcher creates a tier-2 fetcher. A zero timeout leaves the
// render unbounded; execPath may be empty to let chromedp find Chrome.
func NewBrowserFetcher(timeout time.Duration, execPath string) *BrowserFetcher {
	return &BrowserFetcher{
		timeout:   timeout,
		userAgent: DefaultUserAgent,
		execPath:  execPath,
	}
}

// Name identifies the tier in logs and metrics.
func (f *BrowserFetcher) Name() string { return "browser" }

// Fetch navigates to url and returns the rendered outer HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.userAgent),
	)
	if f.execPath != "" {
		opts = append(opts, chromedp.ExecPath(f.execPath))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}
	return html, nil
}
