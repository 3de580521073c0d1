package scraper

import (
	"context"
	"net/http/cookiejar"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"

	"github.com/bidwatch/bidwatch/config"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session is one vendor run's set of connections: a cookie-jarred HTTP
// client and, for browser vendors, a lazily allocated chromedp context.
// Sessions are single-run, single-goroutine.
type Session struct {
	Vendor  config.VendorConfig
	Scraper config.ScraperConfig
	HTTP    *resty.Client

	browserCtx context.Context
	cancels    []context.CancelFunc
}

// NewSession builds the HTTP side of a session immediately; the browser is
// allocated on first use.
func NewSession(vendor config.VendorConfig, sc config.ScraperConfig) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(vendor.BaseURL).
		SetCookieJar(jar).
		SetHeader("User-Agent", userAgent).
		SetTimeout(sc.PageTimeout)
	return &Session{Vendor: vendor, Scraper: sc, HTTP: client}, nil
}

// Credentials returns the vendor's login pair, failing loudly when either
// half is absent. Configuration errors abort before any scraping begins.
func (s *Session) Credentials() (string, string, error) {
	if s.Vendor.Username == "" || s.Vendor.Password == "" {
		return "", "", ErrMissingCredentials
	}
	return s.Vendor.Username, s.Vendor.Password, nil
}

// Browser returns the session's chromedp context, allocating the headless
// browser on first call.
func (s *Session) Browser(ctx context.Context) (context.Context, error) {
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(s.Scraper.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	s.cancels = append(s.cancels, cancelBrowser, cancelAlloc)

	// fail fast if the browser cannot start at all
	startCtx, cancel := context.WithTimeout(bctx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, err
	}
	s.browserCtx = bctx
	return bctx, nil
}

// Close tears down the browser session. Safe to call when no browser was
// ever allocated.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.browserCtx = nil
}

// Throttle sleeps the vendor's configured rate-limit interval between page
// loads.
func (s *Session) Throttle() {
	if s.Vendor.RateLimitMs > 0 {
		time.Sleep(time.Duration(s.Vendor.RateLimitMs) * time.Millisecond)
	}
}
