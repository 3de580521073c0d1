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

// bidnetDirect scrapes a login-gated, server-paginated solicitation table.
type bidnetDirect struct {
	cfg config.VendorConfig
	sc  config.ScraperConfig
}

func newBidnetDirect(vc config.VendorConfig, sc config.ScraperConfig) scraper.VendorAdapter {
	return &bidnetDirect{cfg: vc, sc: sc}
}

func (b *bidnetDirect) Name() string       { return "bidnetdirect" }
func (b *bidnetDirect) NeedsBrowser() bool { return true }

func (b *bidnetDirect) Login(ctx context.Context, s *scraper.Session) error {
	user, pass, err := s.Credentials()
	if err != nil {
		return err
	}
	bctx, err := s.Browser(ctx)
	if err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(bctx, b.sc.PageTimeout)
	defer cancel()

	var loggedIn bool
	err = chromedp.Run(tctx,
		chromedp.Navigate(b.cfg.BaseURL+"/login"),
		chromedp.WaitVisible(`input[name="j_username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="j_username"]`, user, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="j_password"]`, pass, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		// the account menu only renders for authenticated sessions
		chromedp.Evaluate(`document.querySelector('[data-test="account-menu"], .mets-header-user') !== null`, &loggedIn),
	)
	if err != nil {
		return fmt.Errorf("bidnetdirect login: %w", err)
	}
	if !loggedIn {
		return scraper.ErrAuthenticationFailed
	}
	return nil
}

type bidnetRow struct {
	SiteID   string `json:"siteId"`
	Title    string `json:"title"`
	Issuer   string `json:"issuer"`
	Location string `json:"location"`
	Publish  string `json:"publish"`
	Closing  string `json:"closing"`
	URL      string `json:"url"`
}

func (b *bidnetDirect) ListPage(ctx context.Context, s *scraper.Session, page int) ([]models.Solicitation, bool, error) {
	bctx, err := s.Browser(ctx)
	if err != nil {
		return nil, false, err
	}
	tctx, cancel := context.WithTimeout(bctx, b.sc.PageTimeout)
	defer cancel()

	pageURL := fmt.Sprintf("%s/private/supplier/solicitations/search?page=%d", b.cfg.BaseURL, page)

	var (
		rows    []bidnetRow
		hasNext bool
	)
	err = chromedp.Run(tctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(`table.solicitations-table tbody`, chromedp.ByQuery),
		chromedp.Evaluate(`
			(function() {
				var out = [];
				var trs = document.querySelectorAll('table.solicitations-table tbody tr');
				for (var i = 0; i < trs.length; i++) {
					var tr = trs[i];
					var link = tr.querySelector('td.title a');
					out.push({
						siteId:   tr.getAttribute('data-solicitation-id') || '',
						title:    link ? link.innerText.trim() : '',
						issuer:   (tr.querySelector('td.agency') || {}).innerText || '',
						location: (tr.querySelector('td.location') || {}).innerText || '',
						publish:  (tr.querySelector('td.published') || {}).innerText || '',
						closing:  (tr.querySelector('td.closing') || {}).innerText || '',
						url:      link ? link.href : ''
					});
				}
				return out;
			})()
		`, &rows),
		chromedp.Evaluate(`
			(function() {
				var next = document.querySelector('ul.pagination li.next');
				return next !== null && !next.classList.contains('disabled');
			})()
		`, &hasNext),
	)
	if err != nil {
		return nil, false, fmt.Errorf("bidnetdirect page %d: %w", page, err)
	}

	out := make([]models.Solicitation, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Solicitation{
			Site:        b.Name(),
			SiteID:      r.SiteID,
			Title:       r.Title,
			Issuer:      r.Issuer,
			Location:    r.Location,
			PublishDate: r.Publish,
			ClosingDate: r.Closing,
			SiteURL:     r.URL,
			SiteData: map[string]interface{}{
				"page":       page,
				"rawPublish": r.Publish,
				"rawClosing": r.Closing,
			},
		})
	}
	return out, hasNext, nil
}
