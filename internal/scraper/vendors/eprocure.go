package vendors

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/scraper"
	"github.com/bidwatch/bidwatch/models"
)

// eprocure scrapes a public, server-rendered listing over plain HTTP. No
// account; Login just verifies the listing container is reachable so a
// changed page structure fails the run instead of yielding zero rows.
type eprocure struct {
	cfg config.VendorConfig
	sc  config.ScraperConfig
	sel scraper.Selectors
}

func newEprocure(vc config.VendorConfig, sc config.ScraperConfig) scraper.VendorAdapter {
	return &eprocure{
		cfg: vc,
		sc:  sc,
		sel: scraper.Selectors{
			Row:         "table#bid-results tbody tr",
			Title:       "td.bid-title a",
			SiteID:      "td.bid-number",
			Issuer:      "td.bid-agency",
			Location:    "td.bid-location",
			PublishDate: "td.bid-posted",
			ClosingDate: "td.bid-due",
			Link:        "td.bid-title a",
			NextPage:    "ul.pager a[rel=next]",
		},
	}
}

func (e *eprocure) Name() string       { return "eprocure" }
func (e *eprocure) NeedsBrowser() bool { return false }

func (e *eprocure) Login(ctx context.Context, s *scraper.Session) error {
	res, err := s.HTTP.R().SetContext(ctx).Get("/bids")
	if err != nil {
		return fmt.Errorf("eprocure reachability: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("eprocure reachability: status %d", res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("eprocure reachability: %w", err)
	}
	if doc.Find("table#bid-results").Length() == 0 {
		return fmt.Errorf("eprocure: bid listing container not found")
	}
	return nil
}

func (e *eprocure) ListPage(ctx context.Context, s *scraper.Session, page int) ([]models.Solicitation, bool, error) {
	res, err := s.HTTP.R().
		SetContext(ctx).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		Get("/bids")
	if err != nil {
		return nil, false, fmt.Errorf("eprocure page %d: %w", page, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, false, fmt.Errorf("eprocure page %d: status %d", page, res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, false, fmt.Errorf("eprocure page %d: %w", page, err)
	}
	rows, more := e.parseListing(doc, page)
	return rows, more, nil
}

// parseListing extracts rows from a parsed listing document. Split out so
// tests can feed static HTML without a live site.
func (e *eprocure) parseListing(doc *goquery.Document, page int) ([]models.Solicitation, bool) {
	var out []models.Solicitation
	doc.Find(e.sel.Row).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(e.sel.Link)
		href, _ := link.Attr("href")
		out = append(out, models.Solicitation{
			Site:        e.Name(),
			SiteID:      strings.TrimSpace(row.Find(e.sel.SiteID).Text()),
			Title:       strings.TrimSpace(row.Find(e.sel.Title).Text()),
			Issuer:      strings.TrimSpace(row.Find(e.sel.Issuer).Text()),
			Location:    strings.TrimSpace(row.Find(e.sel.Location).Text()),
			PublishDate: strings.TrimSpace(row.Find(e.sel.PublishDate).Text()),
			ClosingDate: strings.TrimSpace(row.Find(e.sel.ClosingDate).Text()),
			SiteURL:     e.absoluteURL(href),
			SiteData: map[string]interface{}{
				"page":      page,
				"rawPosted": strings.TrimSpace(row.Find(e.sel.PublishDate).Text()),
				"rawDue":    strings.TrimSpace(row.Find(e.sel.ClosingDate).Text()),
			},
		})
	})
	more := doc.Find(e.sel.NextPage).Length() > 0
	return out, more
}

func (e *eprocure) absoluteURL(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(e.cfg.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
