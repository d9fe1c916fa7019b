package ingest

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/Vodeneev/livebet/internal/pkg/config"
)

// HTTPFeed polls the feed URL directly on a fixed interval. It is the
// transport for feeds that expose their live JSON without a browser session.
// No DOM fallback exists on this path; an empty poll is just retried.
type HTTPFeed struct {
	cfg        config.ScannerConfig
	httpClient *http.Client
	payloads   chan RawPayload
}

func NewHTTPFeed(cfg *config.ScannerConfig) *HTTPFeed {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// We advertise br/zstd ourselves and decode in readBodyDecode.
	transport.DisableCompression = true

	return &HTTPFeed{
		cfg: *cfg,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		payloads: make(chan RawPayload, cfg.PayloadBuffer),
	}
}

func (f *HTTPFeed) Payloads() <-chan RawPayload {
	return f.payloads
}

// NoteBatch is part of the Feed interface; the HTTP transport has no
// fallback pass to arm, so empty batches only matter to the browser feed.
func (f *HTTPFeed) NoteBatch(matches int) {}

func (f *HTTPFeed) Run(ctx context.Context) error {
	slog.Info("HTTP feed started", "url", f.cfg.FeedURL, "refresh_interval", f.cfg.RefreshInterval)

	// First poll immediately, then on the ticker.
	f.poll(ctx)

	ticker := time.NewTicker(f.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.poll(ctx)
		}
	}
}

func (f *HTTPFeed) poll(ctx context.Context) {
	body, err := f.fetch(ctx)
	if err != nil {
		// Transport failure: the next tick retries, nothing is lost
		// permanently because state is re-derived from the next snapshot.
		slog.Warn("HTTP feed: poll failed, will retry", "error", err)
		return
	}
	if len(body) == 0 {
		return
	}
	select {
	case f.payloads <- RawPayload{Body: body, Source: "http"}:
	default:
		slog.Warn("HTTP feed: payload buffer full, dropping payload")
	}
}

func (f *HTTPFeed) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	userAgent := f.cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		preview := string(b)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, preview)
	}

	return readBodyDecode(resp)
}

// readBodyDecode reads the response body and decompresses it based on
// Content-Encoding (gzip, br, zstd).
func readBodyDecode(resp *http.Response) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch {
	case strings.Contains(enc, "br"):
		r := brotli.NewReader(resp.Body)
		return io.ReadAll(r)
	case strings.Contains(enc, "zstd"):
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.Contains(enc, "gzip"):
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return io.ReadAll(resp.Body)
	}
}
