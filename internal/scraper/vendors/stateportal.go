package vendors

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/scraper"
	"github.com/bidwatch/bidwatch/models"
)

// statePortal scrapes a public JS-rendered card list behind a cookie-consent
// modal. No login, but the consent banner must be dismissed before the
// listing renders.
type statePortal struct {
	cfg config.VendorConfig
	sc  config.ScraperConfig
}

func newStatePortal(vc config.VendorConfig, sc config.ScraperConfig) scraper.VendorAdapter {
	return &statePortal{cfg: vc, sc: sc}
}

func (p *statePortal) Name() string       { return "stateportal" }
func (p *statePortal) NeedsBrowser() bool { return true }

func (p *statePortal) Login(ctx context.Context, s *scraper.Session) error {
	bctx, err := s.Browser(ctx)
	if err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(bctx, p.sc.PageTimeout)
	defer cancel()

	var ready bool
	err = chromedp.Run(tctx,
		chromedp.Navigate(p.cfg.BaseURL+"/solicitations/open"),
		chromedp.Sleep(2*time.Second),
		// dismiss the consent banner when present; it blocks the cards
		chromedp.Evaluate(`
			(function() {
				var btn = document.querySelector('#cookie-consent button.accept, button[data-action="accept-cookies"]');
				if (btn) btn.click();
				return true;
			})()
		`, nil),
		chromedp.WaitReady(`div.solicitation-cards`, chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelector('div.solicitation-cards') !== null`, &ready),
	)
	if err != nil {
		return fmt.Errorf("stateportal open listing: %w", err)
	}
	if !ready {
		return fmt.Errorf("stateportal: card container not found")
	}
	return nil
}

type portalCard struct {
	SiteID  string `json:"siteId"`
	Title   string `json:"title"`
	Issuer  string `json:"issuer"`
	Closing string `json:"closing"`
	QDue    string `json:"qdue"`
	URL     string `json:"url"`
}

func (p *statePortal) ListPage(ctx context.Context, s *scraper.Session, page int) ([]models.Solicitation, bool, error) {
	bctx, err := s.Browser(ctx)
	if err != nil {
		return nil, false, err
	}
	tctx, cancel := context.WithTimeout(bctx, p.sc.PageTimeout)
	defer cancel()

	pageURL := fmt.Sprintf("%s/solicitations/open?p=%d", p.cfg.BaseURL, page)

	var (
		cards   []portalCard
		hasNext bool
	)
	err = chromedp.Run(tctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(`div.solicitation-cards`, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.Evaluate(`
			(function() {
				var out = [];
				var cards = document.querySelectorAll('div.solicitation-cards article.card');
				for (var i = 0; i < cards.length; i++) {
					var c = cards[i];
					var link = c.querySelector('h3 a');
					var field = function(name) {
						var el = c.querySelector('[data-field="' + name + '"]');
						return el ? el.innerText.trim() : '';
					};
					out.push({
						siteId:  c.getAttribute('data-id') || '',
						title:   link ? link.innerText.trim() : '',
						issuer:  field('agency'),
						closing: field('closing-date'),
						qdue:    field('questions-due'),
						url:     link ? link.href : ''
					});
				}
				return out;
			})()
		`, &cards),
		chromedp.Evaluate(`
			(function() {
				var next = document.querySelector('nav.paging a.next');
				return next !== null && next.getAttribute('aria-disabled') !== 'true';
			})()
		`, &hasNext),
	)
	if err != nil {
		return nil, false, fmt.Errorf("stateportal page %d: %w", page, err)
	}

	out := make([]models.Solicitation, 0, len(cards))
	for _, c := range cards {
		out = append(out, models.Solicitation{
			Site:               p.Name(),
			SiteID:             c.SiteID,
			Title:              c.Title,
			Issuer:             c.Issuer,
			ClosingDate:        c.Closing,
			QuestionsDueByDate: c.QDue,
			SiteURL:            c.URL,
			SiteData: map[string]interface{}{
				"page":       page,
				"rawClosing": c.Closing,
			},
		})
	}
	return out, hasNext, nil
}
