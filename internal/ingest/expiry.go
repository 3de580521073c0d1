package ingest

import (
	"time"

	"github.com/bidwatch/bidwatch/models"
)

// DefaultExpiryGrace excludes solicitations that are nominally still open
// but too close to their deadline to be worth pursuing.
const DefaultExpiryGrace = 72 * time.Hour

// NotExpired reports whether a solicitation's closing date is far enough in
// the future to ingest. Records with no parseable closing date are skipped
// (false). Pure function of the record and the supplied clock.
func NotExpired(sol models.Solicitation, now time.Time, grace time.Duration) bool {
	closing, ok := parseISO(sol.ClosingDate)
	if !ok {
		return false
	}
	if grace <= 0 {
		grace = DefaultExpiryGrace
	}
	return closing.Sub(now) > grace
}
