package jobsource

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
)

// renderSettle is how long scripts get to populate the page after the body is ready.
const renderSettle = 3 * time.Second

// Renderer returns the rendered HTML of a page.
type Renderer func(ctx context.Context, url string) (html string, err error)

// ChromeRenderer renders pages in headless Chrome. Chrome or Chromium must be installed.
func ChromeRenderer(userAgent string, timeout time.Duration) (render Renderer) {
	render = func(ctx context.Context, url string) (html string, err error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if userAgent != "" {
			opts = append(opts, chromedp.UserAgent(userAgent))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
		defer cancelAlloc()

		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
		defer cancelTimeout()

		err = chromedp.Run(browserCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body"),
			chromedp.Sleep(renderSettle),
			chromedp.OuterHTML("html", &html),
		)
		if err != nil {
			err = errors.Wrapf(err, "browser rendering failed for %s", url)
			return html, err
		}

		return html, err
	}
	return render
}
