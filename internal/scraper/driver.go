package scraper

import (
	"context"
	"log"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/ingest"
	"github.com/bidwatch/bidwatch/models"
)

// Driver is the generic pagination loop shared by every vendor. It owns the
// trade-offs the per-site scripts used to each reimplement: a hard page cap
// to bound run time, an early exit after a streak of consecutive
// expired/duplicate rows, and per-row error recovery.
type Driver struct {
	Pipeline *ingest.Pipeline
	Cfg      config.ScraperConfig
	Logger   *log.Logger
}

// Run logs in, paginates from startPage, and feeds every row through the
// pipeline, accumulating into the caller's stats and bookmark as it goes.
// Both stay valid when err != nil — and when an adapter panics, since every
// row lands in the caller's values before the stack can unwind. A mid-page
// failure loses only the rows not yet processed.
func (d *Driver) Run(ctx context.Context, adapter VendorAdapter, session *Session, startPage int, stats *ingest.RunStats, bookmark map[string]interface{}) error {
	if startPage < 1 {
		startPage = 1
	}
	if startPage > 1 {
		bookmark["startPage"] = startPage
	}

	if err := adapter.Login(ctx, session); err != nil {
		return err
	}

	// the page cap bounds pages per run, wherever the run starts
	lastAllowed := startPage + d.Cfg.MaxPages - 1
	streak := 0
	for page := startPage; page <= lastAllowed; page++ {
		rows, more, err := adapter.ListPage(ctx, session, page)
		if err != nil {
			return err
		}
		d.logf("[%s] page %d: %d rows", adapter.Name(), page, len(rows))

		for _, row := range rows {
			if d.Cfg.EnrichDetails {
				d.enrichDescription(ctx, session, &row)
			}
			outcome, perr := d.Pipeline.Process(ctx, row)
			if perr != nil {
				d.logf("[%s] row %s: %v", adapter.Name(), row.SiteID, perr)
			}
			stats.Record(outcome)
			RowProcessed(adapter.Name(), outcome)

			switch outcome {
			case ingest.OutcomeExpired, ingest.OutcomeDuplicate:
				streak++
			default:
				streak = 0
			}
			if streak >= d.Cfg.SkipStreakLimit {
				bookmark["lastPage"] = page
				bookmark["stoppedEarly"] = "skip streak"
				d.logf("[%s] stopping after %d consecutive expired/duplicate rows", adapter.Name(), streak)
				return nil
			}
		}

		bookmark["lastPage"] = page
		if !more || len(rows) == 0 {
			return nil
		}
		if page == lastAllowed {
			// more data existed; surface the truncation to operators
			bookmark["stoppedEarly"] = "page cap"
			return nil
		}
		session.Throttle()
	}
	return nil
}

// enrichDescription backfills an empty description from the row's detail
// page. Best effort: a failed fetch leaves the row as scraped.
func (d *Driver) enrichDescription(ctx context.Context, session *Session, sol *models.Solicitation) {
	if sol.Description != "" || sol.SiteURL == "" {
		return
	}
	res, err := session.HTTP.R().SetContext(ctx).Get(sol.SiteURL)
	if err != nil || res.StatusCode() != 200 {
		return
	}
	pageURL, err := url.Parse(sol.SiteURL)
	if err != nil {
		return
	}
	article, err := readability.FromReader(strings.NewReader(string(res.Body())), pageURL)
	if err != nil {
		return
	}
	sol.Description = truncateUTF8(strings.TrimSpace(article.TextContent), 2000)
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (d *Driver) logf(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}
