package scraper

import (
	"context"
	"errors"

	"github.com/bidwatch/bidwatch/models"
)

// ErrAuthenticationFailed is returned by Login when the post-login page
// does not show an authenticated-only marker. Every adapter must verify the
// marker instead of assuming the form submit worked, so a changed page
// structure surfaces as an explicit failure rather than an empty run.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrMissingCredentials aborts a run before any scraping begins.
var ErrMissingCredentials = errors.New("missing vendor credentials")

// VendorAdapter is the site-specific part of a scraper run. The generic
// driver owns pagination, skip-streak early exit, page caps and per-row
// error recovery; adapters only know how to log in and read one page.
type VendorAdapter interface {
	Name() string
	// NeedsBrowser reports whether the site requires a headless browser;
	// static-HTML sites are scraped over plain HTTP.
	NeedsBrowser() bool
	// Login establishes an authenticated session and verifies it took
	// effect. Sites without accounts verify the listing is reachable.
	Login(ctx context.Context, s *Session) error
	// ListPage extracts the raw rows of one 1-based page. more=false
	// ends pagination. Returned rows carry the site's raw field text;
	// normalization happens in the pipeline.
	ListPage(ctx context.Context, s *Session, page int) ([]models.Solicitation, bool, error)
}

// Selectors is the declarative per-vendor selector table that drives row
// extraction. One listing differs from another almost entirely by these
// strings.
type Selectors struct {
	Row         string
	Title       string
	SiteID      string
	Issuer      string
	Location    string
	PublishDate string
	ClosingDate string
	Link        string
	NextPage    string
	// AuthMarker is an element only present when logged in.
	AuthMarker string
}
