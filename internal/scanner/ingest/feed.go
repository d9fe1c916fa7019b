package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/Vodeneev/livebet/internal/pkg/config"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// RawPayload is one raw feed payload plus where it came from.
type RawPayload struct {
	Body   []byte
	Source string // "network", "dom" or "http"
}

// Feed is a live payload transport. Run blocks until ctx is cancelled;
// payloads arrive on the channel returned by Payloads. NoteBatch feeds back
// how many matches the last payload normalized into, which drives the DOM
// fallback decision.
type Feed interface {
	Run(ctx context.Context) error
	Payloads() <-chan RawPayload
	NoteBatch(matches int)
}

// NewFeed picks the transport from config.
func NewFeed(cfg *config.ScannerConfig) (Feed, error) {
	switch cfg.Transport {
	case "browser":
		return NewBrowserFeed(cfg), nil
	case "http":
		return NewHTTPFeed(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scanner transport %q", cfg.Transport)
	}
}

// BrowserFeed drives a headless Chrome tab on the live page: every XHR/fetch
// response body the page receives is pushed as a raw payload, and the page is
// reloaded on a fixed interval. When network payloads stop yielding matches,
// a rendered-DOM extraction pass runs as a degraded fallback.
type BrowserFeed struct {
	cfg      config.ScannerConfig
	payloads chan RawPayload

	// consecutive refreshes whose payloads normalized into zero matches
	emptyRefreshes atomic.Int32
}

func NewBrowserFeed(cfg *config.ScannerConfig) *BrowserFeed {
	return &BrowserFeed{
		cfg:      *cfg,
		payloads: make(chan RawPayload, cfg.PayloadBuffer),
	}
}

func (f *BrowserFeed) Payloads() <-chan RawPayload {
	return f.payloads
}

func (f *BrowserFeed) NoteBatch(matches int) {
	if matches > 0 {
		f.emptyRefreshes.Store(0)
		return
	}
	f.emptyRefreshes.Add(1)
}

func (f *BrowserFeed) Run(ctx context.Context) error {
	chromeDir, err := os.MkdirTemp("", "livebet_chrome_")
	if err != nil {
		return fmt.Errorf("create chrome temp dir: %w", err)
	}
	defer os.RemoveAll(chromeDir)

	userAgent := f.cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(chromeDir),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok {
			return
		}
		if e.Type != network.ResourceTypeXHR && e.Type != network.ResourceTypeFetch {
			return
		}
		if f.cfg.URLFilter != "" && !strings.Contains(e.Response.URL, f.cfg.URLFilter) {
			return
		}
		// Body fetch must not run on the event goroutine: GetResponseBody
		// round-trips to the browser and would deadlock the event loop.
		go f.fetchBody(browserCtx, e.RequestID, e.Response.URL)
	})

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(f.cfg.FeedURL),
	); err != nil {
		return fmt.Errorf("open feed page: %w", err)
	}
	slog.Info("Browser feed started", "url", f.cfg.FeedURL, "refresh_interval", f.cfg.RefreshInterval)

	ticker := time.NewTicker(f.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if int(f.emptyRefreshes.Load()) >= f.cfg.DOMFallbackAfter {
				f.runDOMPass(browserCtx)
			}
			// Reload failures are transport failures: log and let the next
			// tick retry, state is re-derived from the next good snapshot.
			if err := chromedp.Run(browserCtx, chromedp.Reload()); err != nil {
				slog.Warn("Browser feed: page reload failed, will retry", "error", err)
			}
		}
	}
}

func (f *BrowserFeed) fetchBody(ctx context.Context, requestID network.RequestID, url string) {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return
	}
	// Small grace period: the response body is not always available the
	// moment EventResponseReceived fires.
	time.Sleep(200 * time.Millisecond)

	body, err := network.GetResponseBody(requestID).Do(cdp.WithExecutor(ctx, c.Target))
	if err != nil {
		slog.Debug("Browser feed: response body unavailable", "url", url, "error", err)
		return
	}
	if len(body) == 0 {
		return
	}
	f.offer(RawPayload{Body: body, Source: "network"})
}

func (f *BrowserFeed) runDOMPass(ctx context.Context) {
	slog.Info("Browser feed: network pass yielded no matches, running DOM extraction")

	runCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	var extracted string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(domExtractScript, &extracted)); err != nil {
		slog.Warn("Browser feed: DOM extraction failed", "error", err)
		return
	}
	if extracted == "" {
		return
	}
	f.offer(RawPayload{Body: []byte(extracted), Source: "dom"})
}

func (f *BrowserFeed) offer(p RawPayload) {
	select {
	case f.payloads <- p:
	default:
		slog.Warn("Browser feed: payload buffer full, dropping payload", "source", p.Source)
	}
}
