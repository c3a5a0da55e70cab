// Package transit provides the ferry status page adapters: two page
// fetchers (plain HTTP and headless browser) and the HTML walk that turns a
// status page into rows.
package transit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.PageFetcher = (*DirectFetcher)(nil)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultUserAgent    = "islandguide/1.0 (+https://github.com/0xcro3dile/islandguide)"

	maxPageBytes = 4 << 20
)

// DirectFetcher is tier 1: a plain GET with a bounded timeout. Requests are
// rate limited so a burst of questions does not hammer the operator's site.
type DirectFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewDirectFetcher creates a tier-1 fetcher. rps <= 0 disables limiting.
func NewDirectFetcher(timeout time.Duration, rps float64) *DirectFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &DirectFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: DefaultUserAgent,
	}
}

// Name identifies the tier in logs and metrics.
func (f *DirectFetcher) Name() string { return "direct" }

// Fetch returns the page decoded to UTF-8.
func (f *DirectFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ja,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	// The operator's pages have been served as Shift_JIS before.
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxPageBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("detecting charset: %w", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(data), nil
}
